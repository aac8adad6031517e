package api

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/util"
)

func TestShutdownTimeoutComesFromConfig(t *testing.T) {
	sc := &util.ServerConfig{
		ServerAddr:      "localhost:0",
		GracefulTimeout: 250 * time.Millisecond,
	}

	a := NewAPI(nil, zap.NewNop().Sugar(), sc)
	assert.Equal(t, sc.GracefulTimeout, a.gracefulTimeout)
}
