package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToISODate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "dotted short month and day", in: "2021.3.5", want: "2021-03-05"},
		{name: "already iso", in: "2021-03-05", want: "2021-03-05"},
		{name: "korean particles", in: "2023년 7월 9일", want: "2023-07-09"},
		{name: "slashes", in: "2022/10/15", want: "2022-10-15"},
		{name: "embedded in prose", in: "공연일 2022. 10. 15 (토)", want: "2022-10-15"},
		{name: "impossible month skipped", in: "2023.13.40", want: "2023.13.40"},
		{name: "no date kept", in: "토요일 저녁", want: "토요일 저녁"},
		{name: "blank kept", in: "  ", want: "  "},
		{name: "nineteen hundreds ignored", in: "1999.1.1", want: "1999.1.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToISODate(tt.in))
		})
	}
}

func TestTo24h(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "korean pm hour", in: "오후 3시", want: "15:00"},
		{name: "korean am midnight", in: "오전 12:00", want: "00:00"},
		{name: "korean pm minutes", in: "오후 7시 30분", want: "19:30"},
		{name: "korean pm single digit minutes", in: "오후 7시 5분", want: "19:05"},
		{name: "marker first single digit minutes", in: "PM 7:5", want: "19:05"},
		{name: "pm noon stays", in: "PM 12:15", want: "12:15"},
		{name: "marker last lower case", in: "6:00 pm", want: "18:00"},
		{name: "marker last no space", in: "9:05AM", want: "09:05"},
		{name: "korean hour no marker", in: "19시", want: "19:00"},
		{name: "already 24h", in: "18:30", want: "18:30"},
		{name: "bare single digit hour kept", in: "7:30", want: "7:30"},
		{name: "out of range kept", in: "PM 25:00", want: "PM 25:00"},
		{name: "no time kept", in: "저녁", want: "저녁"},
		{name: "blank kept", in: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, To24h(tt.in))
		})
	}
}

func TestNormalizersAreIdempotent(t *testing.T) {
	inputs := []string{
		"", " ", "2021.3.5", "2021-03-05", "2023년 7월 9일", "2023.13.40", "garbage",
		"오후 3시", "오후 7시 5분", "PM 7:5", "오전 12:00", "6:00 pm", "19시", "7:30", "PM 25:00", "3시간", "오후",
		"AM", "12", "\xff\xfe", "2022.10.15 6:00 pm",
	}
	for _, in := range inputs {
		d := ToISODate(in)
		assert.Equal(t, d, ToISODate(d), "ToISODate(%q)", in)
		tm := To24h(in)
		assert.Equal(t, tm, To24h(tm), "To24h(%q)", in)
	}
}

func TestFixSeatMisread(t *testing.T) {
	assert.Equal(t, "3층 A구역 14열 7번", FixSeatMisread("3층 A구역 14일 7번"))
	assert.Equal(t, "14열 7번", FixSeatMisread("14 일 7 번"))
	assert.Equal(t, "3층 A구역 14열 7번", FixSeatMisread("3층 A구역 14열 7번"))
	assert.Equal(t, "7월 9일", FixSeatMisread("7월 9일"))
}
