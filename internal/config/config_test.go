package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/qbdsl/internal/querydsl"
)

func TestDefault_InversesAreSymmetric(t *testing.T) {
	cfg := Default()

	for _, name := range cfg.OperatorNames() {
		op, _ := cfg.Operator(name)
		require.NotEmpty(t, op.Inverse, "operator %s has no inverse", name)

		inv, ok := cfg.Operator(op.Inverse)
		require.True(t, ok, "inverse %s of %s is missing", op.Inverse, name)
		assert.Equal(t, name, inv.Inverse, "inverse of %s is not symmetric", name)
	}
}

func TestDefault_IsValid(t *testing.T) {
	assert.Empty(t, Validate(Default()))
}

func TestDefault_ReturnsFreshConfig(t *testing.T) {
	a := Default()
	a.Operators["equal"].Inverse = "changed"

	b := Default()
	assert.Equal(t, "not_equal", b.Operators["equal"].Inverse)
}

func TestEqualityPrimitiveByWidget(t *testing.T) {
	cfg := Default()
	op, ok := cfg.Operator("equal")
	require.True(t, ok)

	tests := []struct {
		widget string
		want   querydsl.Primitive
	}{
		{WidgetNumber, querydsl.Match},
		{WidgetBoolean, querydsl.Term},
		{WidgetDate, querydsl.Range},
		{WidgetTime, querydsl.Range},
		{WidgetText, querydsl.Term},
		{"custom", querydsl.Term},
	}
	for _, tt := range tests {
		t.Run(tt.widget, func(t *testing.T) {
			got, ok := op.Primitive.Select(tt.widget)
			require.True(t, ok)
			assert.Equal(t, tt.want, got)

			again, _ := op.Primitive.Select(tt.widget)
			assert.Equal(t, got, again, "selection must be pure")
		})
	}
}

func TestByWidget_NoDefault(t *testing.T) {
	sel := ByWidget{Widgets: map[string]querydsl.Primitive{"geo": querydsl.GeoBoundingBox}}

	_, ok := sel.Select("text")
	assert.False(t, ok)

	p, ok := sel.Select("geo")
	assert.True(t, ok)
	assert.Equal(t, querydsl.GeoBoundingBox, p)
}

func TestStatic_Empty(t *testing.T) {
	_, ok := Static("").Select("text")
	assert.False(t, ok)
}

func TestOperatorBehavior_ClauseKind(t *testing.T) {
	assert.Equal(t, querydsl.Must, (&OperatorBehavior{}).ClauseKind())
	assert.Equal(t, querydsl.MustNot, (&OperatorBehavior{Occurrence: querydsl.MustNot}).ClauseKind())
}

func TestWidgetBehavior_Override(t *testing.T) {
	var nilWidget *WidgetBehavior
	_, ok := nilWidget.Override()
	assert.False(t, ok)

	_, ok = (&WidgetBehavior{Name: "text"}).Override()
	assert.False(t, ok, "a widget without formatter has no override")

	fn := func(FormatInput) (any, error) { return "x", nil }
	got, ok := (&WidgetBehavior{Name: "text", Formatter: fn}).Override()
	require.True(t, ok)
	out, err := got(FormatInput{})
	require.NoError(t, err)
	assert.Equal(t, "x", out)
}

func TestDefaultResolver(t *testing.T) {
	r := DefaultResolver{}

	tests := []struct {
		name string
		q    WidgetQuery
		want string
	}{
		{"field source", WidgetQuery{ValueSrc: "field", FieldConfig: FieldConfig{Type: "number"}}, "field"},
		{"declared widget", WidgetQuery{FieldConfig: FieldConfig{Type: "text", Widget: "brand"}}, "brand"},
		{"field type", WidgetQuery{FieldConfig: FieldConfig{Type: "number"}, ValueType: "text"}, "number"},
		{"value type hint", WidgetQuery{ValueType: "boolean"}, "boolean"},
		{"nothing", WidgetQuery{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.ResolveWidget(tt.q))
		})
	}
}

func TestConfig_WidgetResolverFallback(t *testing.T) {
	cfg := &Config{}
	assert.IsType(t, DefaultResolver{}, cfg.WidgetResolver())

	cfg.Resolver = WidgetResolverFunc(func(WidgetQuery) string { return "slider" })
	assert.Equal(t, "slider", cfg.WidgetResolver().ResolveWidget(WidgetQuery{}))
}

func TestClone_Independent(t *testing.T) {
	cfg := Default()
	cfg.Fields["num"] = FieldConfig{Type: "number"}

	cp := cfg.Clone()
	cp.Fields["extra"] = FieldConfig{Type: "text"}
	cp.Operators["equal"].Occurrence = querydsl.Should
	delete(cp.Widgets, "text")

	assert.NotContains(t, cfg.Fields, "extra")
	assert.Equal(t, querydsl.ClauseKind(""), cfg.Operators["equal"].Occurrence)
	assert.Contains(t, cfg.Widgets, "text")
	assert.Contains(t, cp.Fields, "num")
}

func TestParseValueMode(t *testing.T) {
	for in, want := range map[string]ValueMode{"": ValuesEach, "each": ValuesEach, "RANGE": ValuesRange, "none": ValuesNone, "Slot": ValuesSlot} {
		got, err := ParseValueMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseValueMode("pairs")
	assert.Error(t, err)
	assert.Equal(t, "range", ValuesRange.String())
	assert.Equal(t, "slot", ValuesSlot.String())
}
