package numeral

import (
	"strconv"
	"testing"
)

func TestToIntChinese(t *testing.T) {
	cases := []struct {
		token string
		want  int
	}{
		{"", 0},
		{"零", 0},
		{"五", 5},
		{"十", 10},
		{"十五", 15},
		{"二十三", 23},
		{"两千五", 2500},
		{"两千五百", 2500},
		{"三百五十", 350},
		{"八千", 8000},
		{"一万", 10000},
		{"一万二", 12000},
		{"一万两千", 12000},
		{"两万三千四百五十六", 23456},
		{"十万", 100000},
		{"abc", 0},
	}

	for _, c := range cases {
		if got := ToInt(c.token); got != c.want {
			t.Errorf("ToInt(%q) = %d, want %d", c.token, got, c.want)
		}
	}
}

func TestToIntDecimalFastPath(t *testing.T) {
	for _, n := range []int{0, 1, 5, 42, 8000, 10000, 123456} {
		token := strconv.Itoa(n)
		if got := ToInt(token); got != n {
			t.Errorf("ToInt(%q) = %d, want %d", token, got, n)
		}
	}
}

func TestToIntMixedDigits(t *testing.T) {
	// Arabic digits combined with Chinese magnitudes take the fallback path.
	if got := ToInt("2万"); got != 20000 {
		t.Errorf("ToInt(2万) = %d, want 20000", got)
	}
	if got := ToInt("3千5"); got != 3500 {
		t.Errorf("ToInt(3千5) = %d, want 3500", got)
	}
}
