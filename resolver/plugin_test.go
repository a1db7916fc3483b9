package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoPluginRefusesEveryCall(t *testing.T) {
	t.Parallel()

	_, err := NoPlugin{}.Invoke(context.Background(), "beforeCreateTodo", nil)
	assert.Error(t, err)
}
