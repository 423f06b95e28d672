package postgres

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpsertQuery(t *testing.T) {
	query, args := upsertQuery("district_averages",
		[]string{"district_id", "scope", "year", "average_aqi"},
		[][]any{
			{"BK01", "Annual", 2015, 51.0},
			{"BK01", "Annual", 2016, 60.5},
		})

	assert.Equal(t,
		"INSERT INTO district_averages (district_id, scope, year, average_aqi) VALUES ($1,$2,$3,$4),($5,$6,$7,$8) "+
			"ON CONFLICT (district_id, scope, year) DO UPDATE SET average_aqi = EXCLUDED.average_aqi, updated_at = NOW()",
		query)
	assert.Equal(t, []any{"BK01", "Annual", 2015, 51.0, "BK01", "Annual", 2016, 60.5}, args)
}

func TestUpsertQuery_UpdatesEveryNonKeyColumn(t *testing.T) {
	query, args := upsertQuery("district_predictions",
		[]string{"district_id", "scope", "year", "predicted_aqi", "run_id"},
		[][]any{{"A", "Winter", 2027, 70.0, "run"}})

	assert.Contains(t, query, "predicted_aqi = EXCLUDED.predicted_aqi, run_id = EXCLUDED.run_id")
	assert.Len(t, args, 5)
}

func TestMigrationsEmbedded(t *testing.T) {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	content, err := migrations.ReadFile(names[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "district_averages")
	assert.Contains(t, string(content), "district_predictions")
}
