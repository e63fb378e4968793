package bazaar_test

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bazaar "github.com/x402-bazaar/x402-bazaar-go"
)

func TestServiceUnmarshal(t *testing.T) {
	t.Parallel()

	t.Run("passes - defaults", func(t *testing.T) {
		t.Parallel()

		var svc bazaar.Service
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Echo","endpoint":"/api/echo"}`), &svc))

		assert.Equal(t, "Other", svc.Category)
		assert.Empty(t, svc.CostUSDC)
		assert.NotNil(t, svc.Tags)
		assert.True(t, svc.Free())
	})

	t.Run("passes - numeric cost", func(t *testing.T) {
		t.Parallel()

		var svc bazaar.Service
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Echo","cost_usdc":0.005}`), &svc))

		assert.Equal(t, "0.005", svc.CostUSDC)

		cost, err := svc.Cost()
		require.NoError(t, err)
		assert.True(t, cost.Equal(decimal.RequireFromString("0.005")))
		assert.False(t, svc.Free())
	})

	t.Run("passes - zero cost is free", func(t *testing.T) {
		t.Parallel()

		var svc bazaar.Service
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Echo","cost_usdc":"0.00"}`), &svc))
		assert.True(t, svc.Free())
	})

	t.Run("passes - scalar tags become text", func(t *testing.T) {
		t.Parallel()

		var svc bazaar.Service
		require.NoError(t, json.Unmarshal([]byte(`{"name":"Echo","tags":["x",1,true,null,{"k":"v"}]}`), &svc))
		assert.Equal(t, []string{"x", "1", "true"}, svc.Tags)
	})

	t.Run("fails - tags that are not a list", func(t *testing.T) {
		t.Parallel()

		var svc bazaar.Service
		require.ErrorIs(t, json.Unmarshal([]byte(`{"name":"Echo","tags":"weather"}`), &svc), bazaar.ErrDecode)
	})

	t.Run("fails - cost of the wrong type", func(t *testing.T) {
		t.Parallel()

		var svc bazaar.Service
		require.Error(t, json.Unmarshal([]byte(`{"name":"Echo","cost_usdc":true}`), &svc))
	})
}

func TestServiceMatches(t *testing.T) {
	t.Parallel()

	svc := bazaar.Service{
		Name:        "Weather API",
		Description: "Current weather",
		Tags:        []string{"Forecast"},
	}

	assert.True(t, svc.Matches(""))
	assert.True(t, svc.Matches("weather api"))
	assert.True(t, svc.Matches("CURRENT"))
	assert.True(t, svc.Matches("cast"))
	assert.False(t, svc.Matches("crypto"))
}
