package loggerx_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"

	"github.com/clinia/elasticbud/loggerx"
	loggerxtest "github.com/clinia/elasticbud/loggerx/test"
)

func TestLogger(t *testing.T) {
	ctx := context.Background()

	t.Run("should write fields and error", func(t *testing.T) {
		l, buf := loggerxtest.NewTestLoggerWithJSONBuffer(t)
		l.WithError(errors.New("boom")).Warn(ctx, "documents matched", attribute.Int("hits", 2), attribute.String("index", "articles"))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "WARN", entry["level"])
		assert.Equal(t, "documents matched", entry["msg"])
		assert.Equal(t, "boom", entry["error"])
		assert.EqualValues(t, 2, entry["hits"])
		assert.Equal(t, "articles", entry["index"])
	})

	t.Run("should keep fields on derived loggers", func(t *testing.T) {
		l, buf := loggerxtest.NewTestLoggerWithJSONBuffer(t)
		l.WithFields(attribute.String("component", "bulk")).Info(ctx, "done")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "bulk", entry["component"])
	})

	t.Run("should fall back to a discard logger", func(t *testing.T) {
		l := loggerx.OrDiscard(nil)
		require.NotNil(t, l)
		assert.NotPanics(t, func() { l.Info(ctx, "dropped") })
	})
}
