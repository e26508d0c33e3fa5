package discovery

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xtr/internal/element"
)

const calculatorSource = `using Xunit;

namespace Foo.Tests
{
    // class Commented { [Fact] public void Nope() {} }
    public partial class Calculator
    {
        [Fact]
        public void Adds()
        {
            var s = "}";
        }

        [Fact(Skip = "not \"ready\"")]
        public void Divides() => Assert.True(true);

        [Theory]
        [InlineData(1, "a, b")]
        [InlineData(2, "c")]
        [InlineData(3, "x = y", Skip = "flaky")]
        public void Parses(int value, string text)
        {
        }

        public void Helper() { }

        public class Nested
        {
            [Xunit.FactAttribute]
            public async Task Works() { }
        }
    }
}
`

func TestParser_Parse(t *testing.T) {
	parser := NewParser()
	file := parser.Parse("Calculator.cs", []byte(calculatorSource))

	require.Len(t, file.Types, 2)
	calc, nested := file.Types[0], file.Types[1]

	t.Run("qualifies type names", func(t *testing.T) {
		assert.Equal(t, element.TypeName("Foo.Tests.Calculator"), calc.TypeName)
		assert.True(t, calc.Partial)
		assert.Equal(t, element.TypeName("Foo.Tests.Calculator+Nested"), nested.TypeName)
		assert.False(t, nested.Partial)
	})

	t.Run("finds facts and theories only", func(t *testing.T) {
		var names []string
		for _, m := range calc.Methods {
			names = append(names, m.Name)
		}
		assert.Equal(t, []string{"Adds", "Divides", "Parses"}, names)
		require.Len(t, nested.Methods, 1)
		assert.Equal(t, "Works", nested.Methods[0].Name)
	})

	t.Run("reads skip reasons", func(t *testing.T) {
		assert.Empty(t, calc.Methods[0].SkipReason)
		assert.Equal(t, `not "ready"`, calc.Methods[1].SkipReason)
	})

	t.Run("names inline data cases", func(t *testing.T) {
		parses := calc.Methods[2]
		assert.Equal(t, MethodTheory, parses.Kind)
		assert.Equal(t, []string{
			`Parses(value: 1, text: "a, b")`,
			`Parses(value: 2, text: "c")`,
			`Parses(value: 3, text: "x = y")`,
		}, parses.Cases)
		assert.Equal(t, map[string]string{`Parses(value: 3, text: "x = y")`: "flaky"}, parses.CaseSkipReasons)
	})

	t.Run("computes ranges", func(t *testing.T) {
		assert.Equal(t, 6, calc.NameRange.StartLine)
		assert.Equal(t, "Calculator", calculatorSource[calc.NameRange.StartOffset:calc.NameRange.EndOffset])

		adds := calc.Methods[0]
		assert.Equal(t, "Adds", calculatorSource[adds.NameRange.StartOffset:adds.NameRange.EndOffset])
		body := calculatorSource[adds.FullRange.StartOffset:adds.FullRange.EndOffset]
		assert.Contains(t, body, `var s = "}";`)
		assert.Equal(t, byte('}'), body[len(body)-1])
		assert.Equal(t, 8, adds.FullRange.StartLine)
		assert.Equal(t, 12, adds.FullRange.EndLine)

		divides := calc.Methods[1]
		text := calculatorSource[divides.FullRange.StartOffset:divides.FullRange.EndOffset]
		assert.Equal(t, byte(';'), text[len(text)-1])
	})
}

func TestParser_FileScopedNamespace(t *testing.T) {
	src := `namespace Bar.Baz;

public class Widget
{
    [SkippableFact] public void Spins() { }
}
`
	file := NewParser().Parse("Widget.cs", []byte(src))

	require.Len(t, file.Types, 1)
	assert.Equal(t, element.TypeName("Bar.Baz.Widget"), file.Types[0].TypeName)
	require.Len(t, file.Types[0].Methods, 1)
	assert.Equal(t, MethodFact, file.Types[0].Methods[0].Kind)
}

func TestParser_ParseFile(t *testing.T) {
	parser := NewParser()

	path := filepath.Join(t.TempDir(), "Calculator.cs")
	require.NoError(t, os.WriteFile(path, []byte(calculatorSource), 0644))

	file, err := parser.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, file.Path)
	assert.Len(t, file.Types, 2)

	_, err = parser.ParseFile(filepath.Join(t.TempDir(), "missing.cs"))
	assert.Error(t, err)
}

func TestMask(t *testing.T) {
	src := "a // {\nb /* } */ c \"{\\\"}\" @\"x\"\"}\" '}' d"
	masked := string(mask([]byte(src)))

	assert.Len(t, masked, len(src))
	assert.NotContains(t, masked, "{")
	assert.NotContains(t, masked, "}")
	assert.Contains(t, masked, "\nb")
	assert.Contains(t, masked, " d")
}
