package intent

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/voyago/server/domain/entities"
)

func TestExtractFullUtterance(t *testing.T) {
	year := time.Now().Year()
	got := Extract("我想去日本东京，预算一万元，带孩子，5月1日出发，5天")

	want := entities.TripIntent{
		Destination: "日本东京",
		Budget:      10000,
		Travelers:   3,
		StartDate:   fmt.Sprintf("%d-05-01", year),
		EndDate:     fmt.Sprintf("%d-05-05", year),
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract() = %+v, want %+v", got, want)
	}
}

func TestExtractBudgetOnly(t *testing.T) {
	got := Extract("预算大概8000")
	if got.Budget != 8000 {
		t.Errorf("Expected budget 8000, got %v", got.Budget)
	}
	if got.Destination != "" || got.Travelers != 0 || got.StartDate != "" || got.EndDate != "" {
		t.Errorf("Expected all other fields absent, got %+v", got)
	}
}

func TestExtractBudgetVariants(t *testing.T) {
	cases := []struct {
		text string
		want float64
	}{
		{"预算两千五", 2500},
		{"预算2万元", 20000},
		{"预算五千块", 5000},
		{"预算一万二", 12000},
		{"这次预算是3000元左右", 3000},
		{"没有提到钱", 0},
	}
	for _, c := range cases {
		if got := Extract(c.text).Budget; got != c.want {
			t.Errorf("Extract(%q).Budget = %v, want %v", c.text, got, c.want)
		}
	}
}

func TestExtractIsoDateRange(t *testing.T) {
	got := Extract("2024-03-10到2024-03-15")
	if got.StartDate != "2024-03-10" {
		t.Errorf("Expected start date 2024-03-10, got %s", got.StartDate)
	}
	if got.EndDate != "2024-03-15" {
		t.Errorf("Expected end date 2024-03-15, got %s", got.EndDate)
	}
}

func TestExtractInvalidDateDropped(t *testing.T) {
	got := Extract("2024-13-40出发")
	if got.StartDate != "" || got.EndDate != "" {
		t.Errorf("Invalid date should be dropped, got start=%s end=%s", got.StartDate, got.EndDate)
	}
}

func TestExtractTravelers(t *testing.T) {
	cases := []struct {
		text string
		want int
	}{
		{"情侣出游", 2},
		{"一家三口", 3},
		{"一家四口", 4},
		{"带孩子", 3},
		{"三个人一起", 3},
		{"我们5人同行", 5},
		{"一个人", 1},
		{"没有人数信息", 0},
	}
	for _, c := range cases {
		if got := Extract(c.text).Travelers; got != c.want {
			t.Errorf("Extract(%q).Travelers = %d, want %d", c.text, got, c.want)
		}
	}
}

func TestExtractDestinationSuffixStripped(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"我想去云南旅行", "云南"},
		{"要去三亚度假", "三亚"},
		{"目的地是成都", "成都"},
		{"前往西藏旅游", "西藏"},
		{"随便聊聊", ""},
	}
	for _, c := range cases {
		if got := Extract(c.text).Destination; got != c.want {
			t.Errorf("Extract(%q).Destination = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestExtractIdempotent(t *testing.T) {
	texts := []string{
		"我想去日本东京，预算一万元，带孩子，5月1日出发，5天",
		"预算大概8000",
		"情侣出游",
		"",
	}
	for _, text := range texts {
		first := Extract(text)
		second := Extract(text)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Extract(%q) not idempotent: %+v vs %+v", text, first, second)
		}
	}
}

func TestMergeNeverOverwrites(t *testing.T) {
	held := entities.TripIntent{Destination: "上海", Travelers: 2}
	held.Merge(entities.TripIntent{Destination: "北京", Budget: 5000, Travelers: 4})

	if held.Destination != "上海" {
		t.Errorf("Merge overwrote destination: %s", held.Destination)
	}
	if held.Travelers != 2 {
		t.Errorf("Merge overwrote travelers: %d", held.Travelers)
	}
	if held.Budget != 5000 {
		t.Errorf("Merge did not fill budget: %v", held.Budget)
	}
}
