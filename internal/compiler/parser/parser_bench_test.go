package parser

import (
	"strings"
	"testing"
)

// BenchmarkParseSmall benchmarks a single short expression
func BenchmarkParseSmall(b *testing.B) {
	p, err := New()
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := p.Parse("1 + 2 * 3 == !false"); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseProgram benchmarks a program of many expressions
func BenchmarkParseProgram(b *testing.B) {
	p, err := New()
	if err != nil {
		b.Fatal(err)
	}
	source := strings.Repeat("(1 + 2) * -3 >= 4 / 5 != true\n!(6 - 7)\n", 200)

	b.ReportAllocs()
	b.SetBytes(int64(len(source)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(source); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkParseDeepNesting benchmarks deeply grouped input
func BenchmarkParseDeepNesting(b *testing.B) {
	p, err := New()
	if err != nil {
		b.Fatal(err)
	}
	source := strings.Repeat("(", 100) + "1" + strings.Repeat(")", 100)

	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if _, err := p.Parse(source); err != nil {
			b.Fatal(err)
		}
	}
}
