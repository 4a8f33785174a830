// timers_test.go
package ebscript

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Timer periods are generous and assertions use thresholds, not exact
// counts, so these tests stay stable on loaded machines.

func mustRun(t *testing.T, rt *Runtime, src string) Value {
	t.Helper()
	v, err := rt.Run(src, "test")
	require.NoError(t, err)
	return v
}

func Test_Timer_Fires_And_Counts(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
var fired: int = 0;
tick {
    fired += 1;
}
call thread.timerstart("t1", 30, "tick");
`)
	time.Sleep(200 * time.Millisecond)

	count := rt.timers.GetFireCount("t1")
	assert.Greater(t, count, int64(0), "timer should have fired at least once")

	v := mustRun(t, rt, `return fired;`)
	require.Equal(t, KindInt, v.Kind)
	assert.Greater(t, v.Data.(int32), int32(0), "callback should have run")
}

func Test_Timer_Duplicate_Name_Rejected(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("t1", 1000, "noop");
`)
	_, err := rt.Run(`call thread.timerstart("t1", 500, "noop");`, "test")
	require.Error(t, err)
	var dup *DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "t1", dup.Name)

	// the original timer keeps its period
	assert.Equal(t, int64(1000), rt.timers.GetPeriod("t1"))
}

func Test_Timer_Name_Reusable_After_Stop(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("t1", 1000, "noop");
call thread.timerstop("t1");
call thread.timerstart("t1", 500, "noop");
`)
	assert.Equal(t, int64(500), rt.timers.GetPeriod("t1"))
}

func Test_Timer_Pause_Freezes_FireCount(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("t1", 20, "noop");
`)
	time.Sleep(150 * time.Millisecond)
	require.True(t, rt.timers.Pause("t1"))

	// let any fire dispatched before the pause land
	time.Sleep(60 * time.Millisecond)
	frozen := rt.timers.GetFireCount("t1")
	require.Greater(t, frozen, int64(0))

	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, frozen, rt.timers.GetFireCount("t1"),
		"a paused timer must not accumulate fires")
	assert.True(t, rt.timers.IsPaused("t1"))
	assert.False(t, rt.timers.IsRunning("t1"))
}

func Test_Timer_Resume_Keeps_FireCount(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("t1", 20, "noop");
`)
	time.Sleep(120 * time.Millisecond)
	require.True(t, rt.timers.Pause("t1"))
	time.Sleep(60 * time.Millisecond)
	frozen := rt.timers.GetFireCount("t1")

	require.True(t, rt.timers.Resume("t1"))
	time.Sleep(200 * time.Millisecond)
	assert.GreaterOrEqual(t, rt.timers.GetFireCount("t1"), frozen+1,
		"a resumed timer continues from its frozen count")
}

func Test_Timer_Pause_States(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("t1", 1000, "noop");
`)
	assert.False(t, rt.timers.Pause("nosuch"))
	assert.True(t, rt.timers.Pause("t1"))
	assert.False(t, rt.timers.Pause("t1"), "pausing twice reports false")
	assert.False(t, rt.timers.Resume("nosuch"))
	assert.True(t, rt.timers.Resume("t1"))
	assert.False(t, rt.timers.Resume("t1"), "resuming a running timer reports false")
}

func Test_Timer_Stop_Then_Introspection_Sentinels(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("t1", 1000, "noop");
`)
	require.True(t, rt.timers.Stop("t1"))
	assert.False(t, rt.timers.Stop("t1"), "second stop reports false")
	assert.False(t, rt.timers.IsRunning("t1"))
	assert.Equal(t, int64(-1), rt.timers.GetPeriod("t1"))
	assert.Equal(t, int64(-1), rt.timers.GetFireCount("t1"))
	assert.Nil(t, rt.timers.Get("t1"))

	v := mustRun(t, rt, `return call thread.timergetinfo("t1");`)
	assert.True(t, v.IsNull(), "getinfo for an unknown timer is null")
}

func Test_Timer_List_And_Count(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("beta", 1000, "noop");
call thread.timerstart("alpha", 1000, "noop");
`)
	assert.Equal(t, []string{"alpha", "beta"}, rt.timers.List())
	assert.Equal(t, 2, rt.timers.Count())
}

func Test_Timer_GetInfo_Shape(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("t1", 250, "noop");
`)
	v := mustRun(t, rt, `return call json.get(call thread.timergetinfo("t1"), "periodms");`)
	require.Equal(t, KindInt, v.Kind)
	assert.Equal(t, int32(250), v.Data.(int32))

	v = mustRun(t, rt, `return call json.get(call thread.timergetinfo("t1"), "source");`)
	assert.Equal(t, StringVal("script"), v)
}

func Test_Timer_Invalid_Period(t *testing.T) {
	rt := testRuntime(t)
	_, err := rt.Run(`
noop { }
call thread.timerstart("t1", 0, "noop");
`, "test")
	require.Error(t, err)
	var arg *ArgumentError
	assert.ErrorAs(t, err, &arg)
}

func Test_Timer_StopAll(t *testing.T) {
	rt := testRuntime(t)
	mustRun(t, rt, `
noop { }
call thread.timerstart("a", 1000, "noop");
call thread.timerstart("b", 1000, "noop");
`)
	rt.timers.StopAll()
	assert.Equal(t, 0, rt.timers.Count())
}
