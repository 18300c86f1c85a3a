// Package presence реализует эфемерный канал присутствия участников
// (awareness): имя, цвет и выделенную ячейку каждого подключенного клиента.
package presence

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

// Palette - цвета участников, контрастные на светлом и темном фоне.
var Palette = []string{
	"#E91E63", // pink
	"#9C27B0", // purple
	"#673AB7", // deep purple
	"#3F51B5", // indigo
	"#2196F3", // blue
	"#00BCD4", // cyan
	"#009688", // teal
	"#4CAF50", // green
	"#FF9800", // orange
	"#FF5722", // deep orange
}

var (
	adjectives = []string{"Happy", "Clever", "Swift", "Brave", "Calm", "Eager", "Gentle", "Kind", "Lively", "Noble"}
	nouns      = []string{"Panda", "Tiger", "Eagle", "Dolphin", "Fox", "Wolf", "Bear", "Hawk", "Lion", "Owl"}
)

// GenerateColor returns a random palette color.
func GenerateColor() string {
	return Palette[rand.IntN(len(Palette))]
}

// GenerateName возвращает случайное имя вида "Happy Panda".
func GenerateName() string {
	return adjectives[rand.IntN(len(adjectives))] + " " + nouns[rand.IntN(len(nouns))]
}

// Initials возвращает до двух первых букв слов имени в верхнем регистре:
// "Happy Panda" -> "HP".
func Initials(name string) string {
	var b strings.Builder
	for _, word := range strings.Split(name, " ") {
		r, size := utf8.DecodeRuneInString(word)
		if size == 0 {
			continue
		}
		b.WriteRune(r)
	}

	initials := []rune(strings.ToUpper(b.String()))
	if len(initials) > 2 {
		initials = initials[:2]
	}
	return string(initials)
}
