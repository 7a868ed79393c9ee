package cleaning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "tabclean/internal/errors"
	"tabclean/internal/table"
)

func TestDeduplicate(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("id", table.Integer, int64(1), int64(2), int64(1), int64(3), int64(2)),
		table.MustColumn("v", table.String, "a", "b", "c", "d", "e"),
	)

	tests := []struct {
		name      string
		keys      []string
		keep      Keep
		wantV     []any
		wantIndex []int
		removed   int
	}{
		{name: "keep first", keys: []string{"id"}, keep: KeepFirst, wantV: []any{"a", "b", "d"}, wantIndex: []int{0, 1, 3}, removed: 2},
		{name: "keep last", keys: []string{"id"}, keep: KeepLast, wantV: []any{"c", "d", "e"}, wantIndex: []int{2, 3, 4}, removed: 2},
		{name: "all columns", keys: nil, keep: KeepFirst, wantV: []any{"a", "b", "c", "d", "e"}, wantIndex: []int{0, 1, 2, 3, 4}, removed: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, removed, err := Deduplicate(tbl, tt.keys, tt.keep)
			require.NoError(t, err)
			assert.Equal(t, tt.removed, removed)
			col, _ := out.Column("v")
			assert.Equal(t, tt.wantV, col.Values())
			assert.Equal(t, tt.wantIndex, out.Index())
		})
	}
}

func TestDeduplicate_Idempotent(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("k", table.String, "x", "y", "x", nil, nil),
		table.MustColumn("n", table.Float, 1.0, 2.0, 1.0, nil, nil),
	)

	once, removed, err := Deduplicate(tbl, nil, KeepFirst)
	require.NoError(t, err)
	assert.Equal(t, 2, removed, "null keys compare equal")

	twice, removedAgain, err := Deduplicate(once, nil, KeepFirst)
	require.NoError(t, err)
	assert.Zero(t, removedAgain)
	assert.Equal(t, once.Index(), twice.Index())
}

func TestDeduplicate_SeparatorBytesInValues(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("a", table.String, "x\x1fs:y", "x"),
		table.MustColumn("b", table.String, "z", "y\x1fs:z"),
	)

	out, removed, err := Deduplicate(tbl, []string{"a", "b"}, KeepFirst)
	require.NoError(t, err)
	assert.Zero(t, removed)
	assert.Equal(t, 2, out.NumRows())
}

func TestDeduplicate_Errors(t *testing.T) {
	_, _, err := Deduplicate(peopleTable(), []string{"missing"}, KeepFirst)
	assert.True(t, apperrors.IsKind(err, apperrors.KindSchemaMismatch))

	_, _, err = Deduplicate(peopleTable(), nil, "middle")
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))
}

func TestDeduplicateStage_Report(t *testing.T) {
	stage := NewDeduplicateStage("", []string{"id"}, KeepFirst)
	assert.Equal(t, "deduplicate", stage.Name())

	_, report, err := stage.Apply(peopleTable())
	require.NoError(t, err)
	assert.Equal(t, 1, report.DuplicatesRemoved)
	assert.Equal(t, 3, report.RowsIn)
	assert.Equal(t, 2, report.RowsOut)
}

func TestCoerceTypes(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("qty", table.String, "1", "2", "x", nil),
		table.MustColumn("when", table.String, "2021-01-02", "2021-02-03", "2021-03-04", "bad"),
	)
	specs := []table.ColumnSpec{{Name: "qty", Type: table.Integer, Nullable: true}}

	t.Run("fail fast reports row and column", func(t *testing.T) {
		out, _, err := CoerceTypes(tbl, specs, CoerceOptions{Policy: FailFast})
		require.Error(t, err)
		assert.Nil(t, out)

		de, ok := apperrors.AsDataError(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.KindTypeCoercion, de.Kind)
		assert.Equal(t, 2, de.Row)
		assert.Equal(t, "qty", de.Column)
		assert.Equal(t, "x", de.Value)
	})

	t.Run("coerce to null records failures", func(t *testing.T) {
		out, report, err := CoerceTypes(tbl, specs, CoerceOptions{Policy: CoerceToNull})
		require.NoError(t, err)

		col, _ := out.Column("qty")
		assert.Equal(t, table.Integer, col.Type())
		assert.Equal(t, []any{int64(1), int64(2), nil, nil}, col.Values())
		assert.Equal(t, 1, report.CellsNulled)
		assert.Equal(t, 2, report.CellsChanged)
		require.Len(t, report.Failures, 1)
		assert.Equal(t, CellFailure{Row: 2, Column: "qty", Value: "x", Reason: "not an integer"}, report.Failures[0])
	})

	t.Run("dates with layout", func(t *testing.T) {
		out, report, err := CoerceTypes(tbl,
			[]table.ColumnSpec{{Name: "when", Type: table.Date, Nullable: true}},
			CoerceOptions{Policy: CoerceToNull, DateLayouts: []string{table.DateLayout}})
		require.NoError(t, err)
		col, _ := out.Column("when")
		assert.Equal(t, time.Date(2021, 2, 3, 0, 0, 0, 0, time.UTC), col.Value(1))
		assert.Nil(t, col.Value(3))
		assert.Equal(t, 1, report.CellsNulled)
	})

	t.Run("non-nullable rejects every null", func(t *testing.T) {
		strict := []table.ColumnSpec{{Name: "qty", Type: table.Integer}}
		tests := []struct {
			name    string
			tbl     *table.Table
			wantRow int
			wantMsg string
		}{
			{name: "unconvertible value", tbl: tbl, wantRow: 2, wantMsg: "non-nullable"},
			{
				name:    "existing null",
				tbl:     table.MustNew(table.MustColumn("qty", table.String, "1", nil)),
				wantRow: 1,
				wantMsg: "missing value",
			},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				out, _, err := CoerceTypes(tt.tbl, strict, CoerceOptions{Policy: CoerceToNull})
				require.Error(t, err)
				assert.Nil(t, out)
				de, ok := apperrors.AsDataError(err)
				require.True(t, ok)
				assert.Equal(t, apperrors.KindTypeCoercion, de.Kind)
				assert.Equal(t, tt.wantRow, de.Row)
				assert.Contains(t, err.Error(), tt.wantMsg)
			})
		}
	})

	t.Run("unknown column", func(t *testing.T) {
		_, _, err := CoerceTypes(tbl, []table.ColumnSpec{{Name: "nope", Type: table.Float}}, CoerceOptions{})
		assert.True(t, apperrors.IsKind(err, apperrors.KindSchemaMismatch))
	})
}

func TestClipOutliers_IQR(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("price", table.Float, 10.0, 12.0, 11.0, 1000.0))

	out, report, err := ClipOutliers(tbl, "price", ClipOptions{Method: ClipIQR})
	require.NoError(t, err)

	col, _ := out.Column("price")
	assert.Equal(t, []any{10.0, 12.0, 11.0, 631.375}, col.Values())
	assert.Equal(t, 1, report.CellsChanged)
	assert.Equal(t, 4, out.NumRows(), "clipping never drops rows")
}

func TestClipOutliers_IntegerStaysInsideFences(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("qty", table.Integer, int64(10), int64(12), int64(11), int64(1000)))

	out, _, err := ClipOutliers(tbl, "qty", ClipOptions{})
	require.NoError(t, err)

	col, _ := out.Column("qty")
	assert.Equal(t, int64(631), col.Value(3))
}

func TestClipOutliers_NarrowIntegerFences(t *testing.T) {
	// iqr with k=0.1 over [1,2] gives fences [1.2, 1.8]; no integer fits.
	tbl := table.MustNew(table.MustColumn("n", table.Integer, int64(1), int64(2)))
	k := 0.1

	out, report, err := ClipOutliers(tbl, "n", ClipOptions{Method: ClipIQR, K: &k})
	require.NoError(t, err)

	col, _ := out.Column("n")
	assert.Equal(t, []any{int64(1), int64(2)}, col.Values())
	assert.Zero(t, report.CellsChanged)
}

func TestClipOutliers_ExplicitZeroFactor(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("price", table.Float, 10.0, 12.0, 11.0, 1000.0))
	zero := 0.0

	out, report, err := ClipOutliers(tbl, "price", ClipOptions{Method: ClipIQR, K: &zero})
	require.NoError(t, err)

	// k=0 clamps to [Q1, Q3] = [10.75, 259], not the 1.5 default.
	col, _ := out.Column("price")
	assert.Equal(t, []any{10.75, 12.0, 11.0, 259.0}, col.Values())
	assert.Equal(t, 2, report.CellsChanged)
}

func TestClipOutliers_ZScoreAndNulls(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("x", table.Float, 1.0, nil, 2.0, 3.0))

	k := 3.0
	out, report, err := ClipOutliers(tbl, "x", ClipOptions{Method: ClipZScore, K: &k})
	require.NoError(t, err)
	assert.Zero(t, report.CellsChanged)
	col, _ := out.Column("x")
	assert.Nil(t, col.Value(1))
}

func TestClipOutliers_Errors(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("s", table.String, "a"))

	_, _, err := ClipOutliers(tbl, "s", ClipOptions{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))

	_, _, err = ClipOutliers(tbl, "missing", ClipOptions{})
	assert.True(t, apperrors.IsKind(err, apperrors.KindSchemaMismatch))

	num := table.MustNew(table.MustColumn("x", table.Float, 1.0))
	negative := -1.0
	_, _, err = ClipOutliers(num, "x", ClipOptions{K: &negative})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))
}

func TestNormalizeStrings(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("city", table.String, "  new   YORK ", nil, "paris"))

	tests := []struct {
		name string
		ops  []StringOp
		want []any
	}{
		{name: "trim then lower", ops: []StringOp{OpTrim, OpLower}, want: []any{"new   york", nil, "paris"}},
		{name: "collapse then title", ops: []StringOp{OpCollapseSpace, OpTitle}, want: []any{"New York", nil, "Paris"}},
		{name: "upper", ops: []StringOp{OpUpper, OpTrim}, want: []any{"NEW   YORK", nil, "PARIS"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := NormalizeStrings(tbl, []string{"city"}, tt.ops)
			require.NoError(t, err)
			col, _ := out.Column("city")
			assert.Equal(t, tt.want, col.Values())
		})
	}

	_, _, err := NormalizeStrings(tbl, []string{"city"}, []StringOp{"reverse"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))
}

func TestReplaceValues(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("code", table.Integer, int64(-1), int64(5), nil, int64(-1)))

	out, report, err := ReplaceValues(tbl, "code", map[string]any{"-1": nil, "5": 50})
	require.NoError(t, err)

	col, _ := out.Column("code")
	assert.Equal(t, []any{nil, int64(50), nil, nil}, col.Values())
	assert.Equal(t, 2, report.CellsNulled)
	assert.Equal(t, 1, report.CellsChanged)

	_, _, err = ReplaceValues(tbl, "code", map[string]any{"5": "five"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))
}

func TestFilterRows(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("embarked", table.Categorical, "S", "C", "Q", nil),
		table.MustColumn("age", table.Float, 22.0, nil, 80.0, 35.0),
	)

	tests := []struct {
		name      string
		preds     []Predicate
		wantIndex []int
	}{
		{name: "in", preds: []Predicate{{Column: "embarked", Op: OpIn, Values: []any{"S", "C"}}}, wantIndex: []int{0, 1}},
		{name: "not in", preds: []Predicate{{Column: "embarked", Op: OpNotIn, Values: []any{"S"}}}, wantIndex: []int{1, 2}},
		{name: "equals", preds: []Predicate{{Column: "embarked", Op: OpEquals, Values: []any{"Q"}}}, wantIndex: []int{2}},
		{name: "between keeps null", preds: []Predicate{{Column: "age", Op: OpBetween, Min: 0, Max: 60, KeepNull: true}}, wantIndex: []int{0, 1, 3}},
		{name: "between drops null", preds: []Predicate{{Column: "age", Op: OpBetween, Min: 0, Max: 60}}, wantIndex: []int{0, 3}},
		{name: "not null", preds: []Predicate{{Column: "embarked", Op: OpNotNull}}, wantIndex: []int{0, 1, 2}},
		{
			name: "conjunction",
			preds: []Predicate{
				{Column: "embarked", Op: OpNotNull},
				{Column: "age", Op: OpBetween, Max: 30},
			},
			wantIndex: []int{0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, report, err := FilterRows(tbl, tt.preds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIndex, out.Index())
			assert.Equal(t, tbl.NumRows()-len(tt.wantIndex), report.RowsDropped)
		})
	}
}

func TestFilterRows_Errors(t *testing.T) {
	tbl := table.MustNew(table.MustColumn("age", table.Float, 1.0))

	tests := []struct {
		name string
		pred Predicate
		kind apperrors.Kind
	}{
		{name: "unknown column", pred: Predicate{Column: "x", Op: OpNotNull}, kind: apperrors.KindSchemaMismatch},
		{name: "bad value", pred: Predicate{Column: "age", Op: OpIn, Values: []any{"old"}}, kind: apperrors.KindInvalidStrategy},
		{name: "equals arity", pred: Predicate{Column: "age", Op: OpEquals, Values: []any{1, 2}}, kind: apperrors.KindInvalidStrategy},
		{name: "empty between", pred: Predicate{Column: "age", Op: OpBetween}, kind: apperrors.KindInvalidStrategy},
		{name: "unknown op", pred: Predicate{Column: "age", Op: "like"}, kind: apperrors.KindInvalidStrategy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := FilterRows(tbl, []Predicate{tt.pred})
			assert.True(t, apperrors.IsKind(err, tt.kind))
		})
	}
}

func TestDeriveDateParts(t *testing.T) {
	ts := time.Date(2011, 12, 9, 12, 50, 0, 0, time.UTC)
	tbl := table.MustNew(table.MustColumn("InvoiceDate", table.Date, ts, nil))

	out, report, err := DeriveDateParts(tbl, "InvoiceDate", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Year", "Month", "Month_Name", "Day", "DayOfWeek", "Hour"}, report.ColumnsAdded)

	want := map[string]any{
		"Year":       int64(2011),
		"Month":      int64(12),
		"Month_Name": "December",
		"Day":        int64(9),
		"DayOfWeek":  "Friday",
		"Hour":       int64(12),
	}
	for name, v := range want {
		col, ok := out.Column(name)
		require.True(t, ok, name)
		assert.Equal(t, v, col.Value(0), name)
		assert.Nil(t, col.Value(1), name)
	}

	out, _, err = DeriveDateParts(tbl, "InvoiceDate", "added_", []DatePart{PartYear})
	require.NoError(t, err)
	assert.True(t, out.HasColumn("added_Year"))
	assert.False(t, out.HasColumn("added_Month"))

	_, _, err = DeriveDateParts(table.MustNew(table.MustColumn("s", table.String, "x")), "s", "", nil)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))
}

func TestDeriveProduct(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("Quantity", table.Integer, int64(6), int64(2), nil),
		table.MustColumn("UnitPrice", table.Float, 2.55, 3.0, 1.0),
	)

	out, report, err := DeriveProduct(tbl, "TotalPrice", "Quantity", "UnitPrice")
	require.NoError(t, err)

	col, _ := out.Column("TotalPrice")
	assert.Equal(t, table.Float, col.Type())
	assert.InDelta(t, 15.3, col.Value(0).(float64), 1e-9)
	assert.Equal(t, 6.0, col.Value(1))
	assert.Nil(t, col.Value(2))
	assert.Equal(t, []string{"TotalPrice"}, report.ColumnsAdded)
}

func TestRenameColumns(t *testing.T) {
	tbl := peopleTable()

	out, _, err := RenameColumns(tbl, map[string]string{"id": "PassengerId"})
	require.NoError(t, err)
	assert.Equal(t, []string{"PassengerId", "age"}, out.ColumnNames())

	_, _, err = RenameColumns(tbl, map[string]string{"id": "age"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))

	_, _, err = RenameColumns(tbl, map[string]string{"nope": "x"})
	assert.True(t, apperrors.IsKind(err, apperrors.KindSchemaMismatch))
}

func TestSplitExplode(t *testing.T) {
	tbl := table.MustNew(
		table.MustColumn("title", table.String, "A", "B", "C"),
		table.MustColumn("country", table.String, "US, India", nil, "France"),
	)

	out, report, err := SplitExplode(tbl, "country", ",", true)
	require.NoError(t, err)

	assert.Equal(t, 4, out.NumRows())
	assert.Equal(t, 1, report.RowsAdded)
	assert.Equal(t, []int{0, 3, 1, 2}, out.Index())

	country, _ := out.Column("country")
	assert.Equal(t, []any{"US", "India", nil, "France"}, country.Values())
	title, _ := out.Column("title")
	assert.Equal(t, []any{"A", "A", "B", "C"}, title.Values())

	_, _, err = SplitExplode(tbl, "country", "", false)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInvalidStrategy))
}

func TestStages_DoNotModifyInputOnError(t *testing.T) {
	tbl := peopleTable()
	before := tbl.Row(2)

	stages := []Stage{
		NewFillMissingStage("bad-fill", map[string]FillStrategy{"age": {Method: FillConstant, Value: "x"}}),
		NewClipOutliersStage("bad-clip", []string{"nope"}, ClipOptions{}),
		NewCoerceTypesStage("bad-coerce", []table.ColumnSpec{{Name: "age", Type: table.Date}}, CoerceOptions{}),
	}
	for _, s := range stages {
		t.Run(s.Name(), func(t *testing.T) {
			out, _, err := s.Apply(tbl)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, before, tbl.Row(2))
		})
	}
}

func TestStages_TargetColumns(t *testing.T) {
	fill := NewFillMissingStage("", map[string]FillStrategy{"b": {Method: FillMode}, "a": {Method: FillMode}})
	assert.ElementsMatch(t, []string{"a", "b"}, fill.TargetColumns())

	drop := NewDropMissingStage("", DropOptions{Subset: []string{"a"}})
	assert.Equal(t, []string{"a"}, drop.TargetColumns())
	assert.Empty(t, NewDropMissingStage("", DropOptions{}).TargetColumns())
}
