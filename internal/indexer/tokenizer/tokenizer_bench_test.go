package tokenizer

import (
	"fmt"
	"strings"
	"testing"
)

var sampleTexts = map[string]string{
	"short":  "funny pet and nasty rat",
	"medium": strings.Repeat("well groomed dog with expressive eyes and a fluffy tail ", 10),
	"long":   strings.Repeat("big cat fancy collar expressive eyes pet dog nasty rat ", 200),
}

func BenchmarkTokenize(b *testing.B) {
	stop, err := ParseStopWords("and with a in the")
	if err != nil {
		b.Fatal(err)
	}
	for name, text := range sampleTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				if _, err := Tokenize(text, stop); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkSplitIntoWordsVaryingSize(b *testing.B) {
	baseWord := "document search engine ranking "
	for _, size := range []int{10, 100, 1000, 10000} {
		text := strings.Repeat(baseWord, size/len(baseWord)+1)[:size]
		b.Run(fmt.Sprintf("bytes_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for i := 0; i < b.N; i++ {
				_ = SplitIntoWords(text)
			}
		})
	}
}
