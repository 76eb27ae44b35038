package sheetsvc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/marksboard/core/marks"
)

func row(id, name string, tr1, tr2, tr3 float64, rank int) marks.Row {
	total := tr1 + tr2 + tr3
	return marks.Row{
		Record: marks.Record{
			StudentID: id,
			TR1:       marks.Float(tr1),
			TR2:       marks.Float(tr2),
			TR3:       marks.Float(tr3),
			Total:     marks.Float(total),
			Selected:  marks.Bool(total/3 > 35),
			Rank:      marks.Int(rank),
		},
		Name:  name,
		Email: name + "@test.cd",
	}
}

func TestWriteRanking(t *testing.T) {
	rows := []marks.Row{
		row("s2", "bob", 90, 90, 90.5, 1),
		row("s1", "ada", 10, 20, 30, 2),
		{Record: marks.Record{StudentID: "s3"}, Name: "cid", Email: "cid@test.cd"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRanking(&buf, rows, "s1"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{RankingSheet}, f.GetSheetList())
	got, err := f.GetRows(RankingSheet)
	require.NoError(t, err)

	want := [][]string{
		RankingHeader,
		{"1", "bob", "bob@test.cd", "90", "90", "90.5", "270.5", "Selected"},
		{"2", "ada", "ada@test.cd", "10", "20", "30", "60", "Not Selected", "You"},
		{"-", "cid", "cid@test.cd", "-", "-", "-", "-", "-"},
	}
	assert.Equal(t, want, got)
}

func TestWriteRanking_empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRanking(&buf, nil, "s1"))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(RankingSheet)
	require.NoError(t, err)
	assert.Equal(t, [][]string{RankingHeader}, got)
}
