package database

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestPoolStatsCollector_Describe(t *testing.T) {
	c := newPoolStatsCollector(func() *pgxpool.Stat { return nil }, "storefront")

	ch := make(chan *prometheus.Desc, 16)
	c.Describe(ch)
	close(ch)

	var names []string
	for d := range ch {
		names = append(names, d.String())
	}
	assert.Len(t, names, 7)
	assert.Contains(t, names[0], "db_pool_acquired_connections")

	var _ prometheus.Collector = c
}
