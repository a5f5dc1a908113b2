package script

import (
	"math"
	"strings"

	"github.com/charmbracelet/log"
	lua "github.com/yuin/gopher-lua"

	"github.com/matzehuels/grephite/pkg/graph"
)

const graphTypeName = "grephite.graph"

var openLibs = []struct {
	name string
	fn   lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
	{lua.CoroutineLibName, lua.OpenCoroutine},
}

// removed from the base library: they read the filesystem or load modules
var blockedGlobals = []string{"dofile", "loadfile", "require", "module"}

// newState creates an interpreter with the restricted library set and the
// host API bound to buf and snap.
func newState(buf *Buffer, snap *graph.Snapshot, logger *log.Logger) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range openLibs {
		err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name))
		if err != nil {
			L.Close()
			return nil, err
		}
	}
	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("print", L.NewFunction(luaPrint(logger)))
	L.SetGlobal("set_color", L.NewFunction(func(L *lua.LState) int {
		id := checkNode(L, 1)
		buf.Push(SetColor(id, L.CheckString(2)))
		return 0
	}))
	L.SetGlobal("reset_color", L.NewFunction(func(L *lua.LState) int {
		buf.Push(ResetColor(checkNode(L, 1)))
		return 0
	}))

	mt := L.NewTypeMetatable(graphTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), graphMethods))
	L.SetField(mt, "__len", L.NewFunction(graphLen))
	ud := L.NewUserData()
	ud.Value = snap
	L.SetMetatable(ud, mt)
	L.SetGlobal("graph", ud)
	return L, nil
}

var graphMethods = map[string]lua.LGFunction{
	"len":            graphLen,
	"nodes":          graphNodes,
	"neighbors":      graphNeighbors,
	"label":          graphLabel,
	"get_nodes":      graphNodes,
	"get_neighbours": graphNeighbors,
}

func checkSnapshot(L *lua.LState) *graph.Snapshot {
	ud := L.CheckUserData(1)
	if s, ok := ud.Value.(*graph.Snapshot); ok {
		return s
	}
	L.ArgError(1, "graph expected")
	return nil
}

// checkNode reads a node id argument. Ids are non-negative integers.
func checkNode(L *lua.LState, n int) graph.NodeID {
	v := float64(L.CheckNumber(n))
	if v < 0 || v != math.Trunc(v) || v > 1<<53 {
		L.ArgError(n, "node id must be a non-negative integer")
	}
	return graph.NodeID(v)
}

func idList(L *lua.LState, ids []graph.NodeID) *lua.LTable {
	t := L.CreateTable(len(ids), 0)
	for _, id := range ids {
		t.Append(lua.LNumber(id))
	}
	return t
}

func graphLen(L *lua.LState) int {
	L.Push(lua.LNumber(checkSnapshot(L).Len()))
	return 1
}

func graphNodes(L *lua.LState) int {
	L.Push(idList(L, checkSnapshot(L).NodeIDs()))
	return 1
}

// graphNeighbors returns an empty table for ids unknown to the snapshot.
func graphNeighbors(L *lua.LState) int {
	s := checkSnapshot(L)
	nbrs, _ := s.Neighbors(checkNode(L, 2))
	L.Push(idList(L, nbrs))
	return 1
}

func graphLabel(L *lua.LState) int {
	s := checkSnapshot(L)
	label, ok := s.Label(checkNode(L, 2))
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(label))
	return 1
}

func luaPrint(logger *log.Logger) lua.LGFunction {
	return func(L *lua.LState) int {
		parts := make([]string, 0, L.GetTop())
		for i := 1; i <= L.GetTop(); i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		logger.Info(strings.Join(parts, "\t"), "source", "lua")
		return 0
	}
}
