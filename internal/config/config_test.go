package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data/Border_Crossing_Entry_Data.csv", cfg.SourcePath)
	assert.Equal(t, "sql/data.sqlite", cfg.StorePath)
	assert.Equal(t, "data", cfg.StoreTable)
	assert.Equal(t, "json/data.json", cfg.ExportPath)
	assert.False(t, cfg.SkipInvalidRows)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, "border-crossings", cfg.KafkaTopic)
	assert.Empty(t, cfg.PushgatewayURL)
	assert.Equal(t, "border_crossing_etl", cfg.MetricsJob)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SOURCE_PATH", "/in/crossings.csv")
	t.Setenv("STORE_PATH", "/out/crossings.sqlite")
	t.Setenv("STORE_TABLE", "crossings")
	t.Setenv("EXPORT_PATH", "/out/crossings.json")
	t.Setenv("SKIP_INVALID_ROWS", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092,")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("PUSHGATEWAY_URL", "http://pushgateway:9091")
	t.Setenv("METRICS_JOB", "custom_job")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/in/crossings.csv", cfg.SourcePath)
	assert.Equal(t, "/out/crossings.sqlite", cfg.StorePath)
	assert.Equal(t, "crossings", cfg.StoreTable)
	assert.Equal(t, "/out/crossings.json", cfg.ExportPath)
	assert.True(t, cfg.SkipInvalidRows)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, "http://pushgateway:9091", cfg.PushgatewayURL)
	assert.Equal(t, "custom_job", cfg.MetricsJob)
}

func TestLoad_BlankKafkaBrokersDisablesFanOut(t *testing.T) {
	for _, v := range []string{",", " , ,", "   "} {
		t.Run(v, func(t *testing.T) {
			t.Setenv("KAFKA_BROKERS", v)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Empty(t, cfg.KafkaBrokers)
			assert.False(t, cfg.KafkaEnabled())
		})
	}
}

func TestLoad_InvalidSkipInvalidRows(t *testing.T) {
	t.Setenv("SKIP_INVALID_ROWS", "sometimes")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKIP_INVALID_ROWS")
}

func TestLoad_InvalidStoreTable(t *testing.T) {
	for _, name := range []string{`data"; DROP TABLE x; --`, "1data", "my table"} {
		t.Run(name, func(t *testing.T) {
			t.Setenv("STORE_TABLE", name)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "STORE_TABLE")
		})
	}
}

func TestLoad_SameStoreAndExportPath(t *testing.T) {
	t.Setenv("STORE_PATH", "out/data")
	t.Setenv("EXPORT_PATH", "out/data")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "EXPORT_PATH")
}

func TestLoad_InvalidPushgatewayURL(t *testing.T) {
	t.Setenv("PUSHGATEWAY_URL", "not a url")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PUSHGATEWAY_URL")
}
