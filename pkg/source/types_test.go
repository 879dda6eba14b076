package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnionOf(t *testing.T) {
	tests := []struct {
		name  string
		types []*Type
		want  string
	}{
		{"empty is never", nil, "never"},
		{"single member", []*Type{String}, "string"},
		{"duplicates dropped", []*Type{String, Number, String}, "string | number"},
		{"nested unions flatten", []*Type{UnionOf(String, Null), UnionOf(Null, Number)}, "string | null | number"},
		{"true and false fold", []*Type{Literal("true", Boolean), Number, Literal("false", Boolean)}, "boolean | number"},
		{"fold does not repeat boolean", []*Type{Boolean, Literal("true", Boolean), Literal("false", Boolean)}, "boolean"},
		{"any absorbs", []*Type{String, Any}, "any"},
		{"function members wrapped", []*Type{FuncOf(nil, Void), Null}, "(() => void) | null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, UnionOf(tt.types...).String())
		})
	}
}

func TestWiden(t *testing.T) {
	tests := []struct {
		name string
		in   *Type
		want string
	}{
		{"string literal", Literal(`"a"`, String), "string"},
		{"number literal", Literal("1", Number), "number"},
		{"enum member", Literal("Color.Red", Named("Color")), "Color"},
		{"union of literals", UnionOf(Literal("1", Number), Literal("2", Number)), "number"},
		{"boolean literals", UnionOf(Literal("true", Boolean), Literal("1", Number)), "boolean | number"},
		{"named is unchanged", Named("Date"), "Date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Widen(tt.in).String())
		})
	}
}

func TestTypeString(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
		want string
	}{
		{"array", ArrayOf(Number), "number[]"},
		{"array of union", ArrayOf(UnionOf(Number, String)), "(number | string)[]"},
		{"array of function", ArrayOf(FuncOf(nil, Number)), "(() => number)[]"},
		{"nested array", ArrayOf(ArrayOf(String)), "string[][]"},
		{"empty object", ObjectOf(nil), "{}"},
		{"object", ObjectOf([]Property{{Name: "a", Type: Number}, {Name: "b-c", Type: String}}), `{ a: number; "b-c": string; }`},
		{"function", FuncOf([]Param{{Name: "a", Type: String}, {Name: "rest", Type: ArrayOf(Any), Rest: true}}, Void), "(a: string, ...rest: any[]) => void"},
		{"named keeps text", Named("Map<string,\n  number>"), "Map<string, number>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestNumberLiteral(t *testing.T) {
	tests := map[string]string{
		"42":    "42",
		"1_000": "1000",
		"0xff":  "255",
		"1.50":  "1.5",
		"1e3":   "1000",
		"10n":   "10n",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, numberLiteral(in).String())
		})
	}
}
