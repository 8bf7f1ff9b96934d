package mock_test

import (
	"context"
	"testing"

	"github.com/fwojciec/tablescrape"
	"github.com/fwojciec/tablescrape/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableWriter_ImplementsInterface(t *testing.T) {
	t.Parallel()

	var _ tablescrape.TableWriter = &mock.TableWriter{}
}

func TestTableWriter_WriteTable(t *testing.T) {
	t.Parallel()

	t.Run("delegates to WriteTableFn", func(t *testing.T) {
		t.Parallel()

		var gotPrefix string
		var gotTable *tablescrape.Table
		w := &mock.TableWriter{
			WriteTableFn: func(_ context.Context, prefix string, table *tablescrape.Table) (string, error) {
				gotPrefix = prefix
				gotTable = table
				return "/out/nepal_stock_data_20240101_120000.csv", nil
			},
		}

		table := &tablescrape.Table{
			Headers: []string{"Symbol", "LTP"},
			Rows:    []tablescrape.Row{{"NABIL", "500"}},
		}

		path, err := w.WriteTable(context.Background(), "nepal_stock_data", table)

		require.NoError(t, err)
		assert.Equal(t, "/out/nepal_stock_data_20240101_120000.csv", path)
		assert.Equal(t, "nepal_stock_data", gotPrefix)
		assert.Equal(t, table, gotTable)
	})
}
