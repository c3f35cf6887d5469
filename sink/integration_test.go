package sink

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/quarrydata/sift/dataset"
	"github.com/quarrydata/sift/testutils"
)

// These tests need live databases and are skipped unless the matching
// environment variable is set.

func TestPostgresRoundTrip(t *testing.T) {
	if _, ok := os.LookupEnv("POSTGRES_URL"); !ok {
		t.Skip("POSTGRES_URL not set")
	}
	ctx := context.Background()
	s, err := ConnectPostgres(ctx, zerolog.Nop(), testutils.PostgresConnStr())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close(ctx))
	}()
	testSinkRoundTrip(t, s)

	// Postgres stores real timestamps, so dates survive the round trip.
	prev, err := s.Preview(ctx, "sift_sink_test", 1)
	require.NoError(t, err)
	dates, ok := prev.Column("order_date")
	require.True(t, ok)
	require.Equal(t, dataset.TypeDate, dates.Type)
	require.Equal(t, []dataset.Value{
		dataset.NewDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
	}, dates.Values)
}

func TestMySQLRoundTrip(t *testing.T) {
	if _, ok := os.LookupEnv("MYSQL_URL"); !ok {
		t.Skip("MYSQL_URL not set")
	}
	ctx := context.Background()
	s, err := ConnectMySQL(ctx, zerolog.Nop(), testutils.MySQLConnStr())
	require.NoError(t, err)
	defer func() {
		require.NoError(t, s.Close(ctx))
	}()
	testSinkRoundTrip(t, s)
}

func testSinkRoundTrip(t *testing.T, s Sink) {
	t.Helper()
	ctx := context.Background()

	ds := mustDataset(t,
		dataset.Column{Name: "order_id", Type: dataset.TypeInt, Values: []dataset.Value{
			dataset.NewInt(1), dataset.NewInt(2),
		}},
		dataset.Column{Name: "product_name", Type: dataset.TypeText, Values: []dataset.Value{
			dataset.NewText("Widget Pro"), dataset.Null(),
		}},
		dataset.Column{Name: "price", Type: dataset.TypeFloat, Values: []dataset.Value{
			dataset.NewFloat(19.99), dataset.NewFloat(5),
		}},
		dataset.Column{Name: "order_date", Type: dataset.TypeDate, Values: []dataset.Value{
			dataset.NewDate(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)),
			dataset.NewDate(time.Date(2024, 3, 6, 0, 0, 0, 0, time.UTC)),
		}},
	)

	written, err := s.Replace(ctx, "sift_sink_test", ds)
	require.NoError(t, err)
	require.Equal(t, 2, written)

	count, err := s.Count(ctx, "sift_sink_test")
	require.NoError(t, err)
	require.Equal(t, 2, count)

	prev, err := s.Preview(ctx, "sift_sink_test", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"order_id", "product_name", "price", "order_date"}, prev.ColumnNames())

	ids, ok := prev.Column("order_id")
	require.True(t, ok)
	require.Equal(t, []dataset.Value{dataset.NewInt(1), dataset.NewInt(2)}, ids.Values)

	names, ok := prev.Column("product_name")
	require.True(t, ok)
	require.Equal(t, []dataset.Value{dataset.NewText("Widget Pro"), dataset.Null()}, names.Values)
}
