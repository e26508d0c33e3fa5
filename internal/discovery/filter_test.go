package discovery

import (
	"testing"

	"xtr/internal/element"
)

func TestFilter_Match(t *testing.T) {
	filter := NewFilter()
	names := []element.TypeName{
		"Foo.Tests.UserTests",
		"Foo.Tests.PaymentTests",
		"Foo.Tests.OrderTests",
		"Foo.Tests.PaymentServiceTests",
		"Bar.Outer+UserServiceTests",
	}

	tests := []struct {
		name     string
		pattern  string
		expected int
	}{
		{name: "empty pattern returns all", pattern: "", expected: 5},
		{name: "wildcard pattern matches short name", pattern: "User*", expected: 2},
		{name: "wildcard pattern matches namespace", pattern: "Foo.Tests.*", expected: 4},
		{name: "wildcard pattern matches substring", pattern: "*Payment*", expected: 2},
		{name: "ordered parts", pattern: "*User*Service*", expected: 1},
		{name: "simple contains match", pattern: "Order", expected: 1},
		{name: "no matches", pattern: "*NonExistent*", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count := 0
			for _, n := range names {
				if filter.Match(n, tt.pattern) {
					count++
				}
			}
			if count != tt.expected {
				t.Errorf("expected %d matches, got %d", tt.expected, count)
			}
		})
	}
}

func TestFilter_FilterClasses(t *testing.T) {
	filter := NewFilter()
	classes := []*element.ClassElement{
		element.NewClass(element.ClassIdentity("a.dll", "Foo.UserTests"), "p", nil),
		element.NewClass(element.ClassIdentity("a.dll", "Foo.OrderTests"), "p", nil),
	}

	t.Run("empty pattern keeps everything", func(t *testing.T) {
		if got := filter.FilterClasses(classes, ""); len(got) != 2 {
			t.Errorf("expected 2 classes, got %d", len(got))
		}
	})

	t.Run("pattern selects classes", func(t *testing.T) {
		got := filter.FilterClasses(classes, "*Order*")
		if len(got) != 1 || got[0].TypeName() != "Foo.OrderTests" {
			t.Errorf("unexpected result %v", got)
		}
	})
}
