package utils

import (
	"strings"
	"unicode"
)

// Tokenize 按非字母数字切分并转小写，保留撇号连接的词（如 i'm、don't）。
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// TitleCase 把每个词首字母大写、其余小写，用于规范化餐次等枚举值。
func TitleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// LastRunes 返回 s 末尾至多 n 个字符（按 rune 计）。
func LastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
