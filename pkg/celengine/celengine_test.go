package celengine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluateAgainstAttributes(t *testing.T) {
	attrs := map[string]interface{}{
		"kind":     "event",
		"category": "workshop",
		"pinned":   true,
		"seats":    int64(20),
	}
	env, err := GetOrBuildEnv(attrs)
	require.NoError(t, err)

	ok, err := Evaluate(env, `kind == "event" && pinned`, attrs)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Evaluate(env, `category.startsWith("meet") || seats > 50`, attrs)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompileRejectsNonBool(t *testing.T) {
	env, err := GetOrBuildEnv(map[string]interface{}{"title": "x"})
	require.NoError(t, err)

	_, err = Compile(env, `title + "y"`)
	require.Error(t, err)

	_, err = Compile(env, `unknown == 1`)
	require.Error(t, err)
}

func TestEnvCacheKeyedByShape(t *testing.T) {
	a, err := GetOrBuildEnv(map[string]interface{}{"x": "s"})
	require.NoError(t, err)
	b, err := GetOrBuildEnv(map[string]interface{}{"x": "t"})
	require.NoError(t, err)
	require.Same(t, a, b)

	c, err := GetOrBuildEnv(map[string]interface{}{"x": true})
	require.NoError(t, err)
	require.NotSame(t, a, c)
}
