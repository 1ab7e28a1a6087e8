package main

import (
	"fmt"
	"sort"

	"github.com/borzacchiello/hwprove"
	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
)

func runInspect(cmd *cobra.Command, args []string) error {
	g, names, err := hwprove.LoadGraphFile(args[0])
	if err != nil {
		return err
	}

	byID := make(map[hwprove.NodeID]string, len(names))
	for name, id := range names {
		byID[id] = name
	}
	ids := make([]hwprove.NodeID, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	w := cmd.OutOrStdout()
	for _, id := range ids {
		n := g.MustNode(id)
		fmt.Fprintf(w, "%-12s %s\n", byID[id], n.String())
	}
	fmt.Fprintf(w, "%d nodes, %d hash-cons hits\n", g.Len(), g.Stats.CacheHits)

	if dump {
		cfg := spew.ConfigState{Indent: "  ", DisableMethods: true, SortKeys: true}
		for _, id := range ids {
			fmt.Fprint(w, cfg.Sdump(g.MustNode(id)))
		}
	}
	return nil
}
