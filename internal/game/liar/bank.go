package liar

import (
	"maps"
	"slices"
)

// Bank maps a category to the keywords that can be dealt for it.
type Bank map[string][]string

func DefaultBank() Bank {
	return Bank{
		"음식":  {"김치찌개", "비빔밥", "떡볶이", "불고기", "삼겹살", "냉면", "초밥", "피자"},
		"동물":  {"호랑이", "코끼리", "기린", "펭귄", "고양이", "강아지", "토끼", "원숭이"},
		"장소":  {"학교", "병원", "공항", "도서관", "놀이공원", "수영장", "영화관", "편의점"},
		"직업":  {"의사", "요리사", "소방관", "경찰", "선생님", "가수", "화가", "운동선수"},
		"스포츠": {"축구", "야구", "농구", "배구", "테니스", "수영", "스키", "볼링"},
	}
}

func (b Bank) categories() []string {
	return slices.Sorted(maps.Keys(b))
}
