package main

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

var headerStyle = text.Colors{text.FgHiBlue, text.Bold}

// printJSON renders a decoded RPC response as a table, the same
// go-pretty-backed rendering the teacher's own list/get-style commands
// use, instead of a bare struct dump.
func printJSON(v interface{}) {
	m, ok := v.(map[string]interface{})
	if !ok {
		fmt.Printf("%v\n", v)
		return
	}
	if services, ok := m["services"].([]interface{}); ok {
		printServiceList(services)
		return
	}
	if service, ok := m["service"].(map[string]interface{}); ok {
		printKeyValueTable(service)
		return
	}
	printKeyValueTable(m)
}

func printServiceList(services []interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{headerStyle.Sprint("SERVICE ID")})
	for _, s := range services {
		t.AppendRow(table.Row{fmt.Sprintf("%v", s)})
	}
	t.Render()
	fmt.Printf("%s %d\n", headerStyle.Sprint("Total:"), len(services))
}

// printKeyValueTable renders an arbitrary response map as a two-column
// FIELD/VALUE table, sorted by key for deterministic output. Slice and
// nested-map values are flattened to a compact inline representation.
func printKeyValueTable(m map[string]interface{}) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{headerStyle.Sprint("FIELD"), headerStyle.Sprint("VALUE")})
	for _, k := range keys {
		t.AppendRow(table.Row{k, formatValue(m[k])})
	}
	t.Render()
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case []interface{}:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = formatValue(e)
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = fmt.Sprintf("%s=%s", k, formatValue(val[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case nil:
		return "-"
	default:
		return fmt.Sprintf("%v", val)
	}
}
