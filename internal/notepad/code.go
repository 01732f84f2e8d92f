package notepad

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
)

// コードは「形容詞-名詞-2桁数字」の形式（例: happy-panda-42）。
// URLに入れても安全で、口頭やQRコードでの受け渡しがしやすいことを優先している。
var codeAdjectives = []string{
	"happy", "brave", "calm", "eager", "fancy", "gentle", "jolly", "kind",
	"lively", "merry", "noble", "proud", "quick", "quiet", "sunny", "swift",
	"tidy", "vivid", "warm", "witty", "bold", "bright", "clever", "cosmic",
	"crisp", "daring", "dreamy", "fresh", "golden", "lucky", "mellow", "misty",
	"polar", "royal", "silent", "silver", "smooth", "spicy", "steady", "zesty",
}

var codeNouns = []string{
	"panda", "tiger", "otter", "eagle", "whale", "koala", "lemur", "raven",
	"fox", "wolf", "bear", "hawk", "crane", "dolphin", "falcon", "gecko",
	"heron", "ibis", "jaguar", "kiwi", "lynx", "marmot", "newt", "ocelot",
	"puffin", "quokka", "rabbit", "seal", "toucan", "urchin", "viper", "walrus",
	"river", "maple", "cedar", "comet", "meteor", "harbor", "island", "meadow",
}

// codePattern はコードとして受け付ける形式。小文字英数とハイフンのみ。
var codePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// GenerateCode は新しいノートパッドコードを生成する。
// 組み合わせ空間は 40×40×100 = 160,000。衝突時の再試行は呼び出し側が行う。
func GenerateCode() (string, error) {
	adjective, err := pick(codeAdjectives)
	if err != nil {
		return "", err
	}
	noun, err := pick(codeNouns)
	if err != nil {
		return "", err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(100))
	if err != nil {
		return "", fmt.Errorf("failed to generate code digits: %w", err)
	}
	return fmt.Sprintf("%s-%s-%02d", adjective, noun, n.Int64()), nil
}

// ValidCode はコードが受け付け可能な形式かを返す。
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

func pick(words []string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(words))))
	if err != nil {
		return "", fmt.Errorf("failed to pick code word: %w", err)
	}
	return words[n.Int64()], nil
}
