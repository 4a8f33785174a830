// builtin_screen_test.go
package ebscript

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Scr_Exists_And_List(t *testing.T) {
	rt, _ := hostedRuntime(t)
	v := mustRun(t, rt, `
screen main = {"title": "Main"};
return call scr.exists("main");
`)
	wantBool(t, v, true)
	wantBool(t, mustRun(t, rt, `return call scr.exists("ghost");`), false)

	v = mustRun(t, rt, `return call array.contains(call scr.list(), "main");`)
	wantBool(t, v, true)
}

func Test_Scr_Get_Set_Explicit_Screen(t *testing.T) {
	rt, _ := hostedRuntime(t)
	v := mustRun(t, rt, `
screen main = {"title": "Main"};
call scr.set("count", 5, "main");
return call scr.get("count", "main");
`)
	wantInt(t, v, 5)
}

func Test_Scr_Get_Unset_Is_Null(t *testing.T) {
	rt, _ := hostedRuntime(t)
	v := mustRun(t, rt, `
screen main = {"title": "Main"};
return call scr.get("missing", "main");
`)
	assert.True(t, v.IsNull())
}

func Test_Scr_Current_Defaults(t *testing.T) {
	rt, _ := hostedRuntime(t)
	// outside any screen context: current is empty and implicit access fails
	wantStr(t, mustRun(t, rt, `return call scr.current();`), "")
	_, err := rt.Run(`call scr.set("x", 1);`, "test")
	require.Error(t, err)
	assert.Equal(t, ValidationError, kindOf(err))
}

func Test_Scr_Current_Inside_Screen_Code(t *testing.T) {
	rt, _ := hostedRuntime(t)
	mustRun(t, rt, `
screen main = {"startup": "call scr.set(\"who\", call scr.current());"};
screen main show;
`)
	waitFor(t, func() bool {
		v, ok := rt.GetScreenVariable("main", "who")
		return ok && v.Kind == KindString && v.Data.(string) == "main"
	})
}

func Test_Scr_Close_Current_Screen(t *testing.T) {
	rt, _ := hostedRuntime(t)
	mustRun(t, rt, `
screen popup = {"title": "Popup"};
screen popup show;
`)
	require.NoError(t, rt.RunOnScreenThread("popup", `call scr.close();`))
	waitFor(t, func() bool {
		return len(rt.screens.Names()) == 0
	})
}
