package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/tasklist/internal/apperr"
	"github.com/BuzzLyutic/tasklist/internal/client"
	"github.com/BuzzLyutic/tasklist/internal/model"
	"github.com/BuzzLyutic/tasklist/internal/store"
)

// newTasksCmd drives a running server through the store layer, so every
// command goes through the same optimistic and batch paths a UI would.
func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Work with tasks on a running server",
	}
	cmd.AddCommand(newTasksListCmd(a), newTasksAddCmd(a), newTasksDoneCmd(a), newTasksRmCmd(a))
	return cmd
}

func (a *app) stores(ctx context.Context) (*store.Stores, error) {
	if a.cfg.UserID == "" {
		return nil, apperr.New(apperr.CodeUnauthorized, "USER_ID is not set")
	}
	c := client.New(a.cfg.ServerURL, nil)
	s, err := store.New(store.Config{
		User:         store.User{ID: a.cfg.UserID},
		Tasks:        c.Tasks(),
		Lists:        c.Lists(),
		Labels:       c.Labels(),
		Logger:       a.logger,
		BatchWorkers: a.cfg.BatchWorkers,
	})
	if err != nil {
		return nil, err
	}
	if err := s.Lists.Fetch(ctx); err != nil {
		return nil, err
	}
	if err := s.Tasks.Fetch(ctx, model.TaskQuery{}); err != nil {
		return nil, err
	}
	return s, nil
}

func newTasksListCmd(a *app) *cobra.Command {
	var (
		listID, search, group, sortBy string
		statuses                      []string
		desc, hideDone, overdue       bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print tasks grouped and sorted",
		RunE: func(cmd *cobra.Command, args []string) error {
			groupKey, err := store.ParseGroupKey(group)
			if err != nil {
				return err
			}
			sortKey, err := store.ParseSortKey(sortBy)
			if err != nil {
				return err
			}
			f := model.TaskFilter{Search: search, Overdue: overdue}
			if listID != "" {
				f.ListIDs = []string{listID}
			}
			for _, st := range statuses {
				f.Statuses = append(f.Statuses, model.Status(st))
			}

			s, err := a.stores(cmd.Context())
			if err != nil {
				return err
			}
			s.Tasks.SetFilter(f)
			s.Tasks.SetView(store.ViewConfig{ShowCompleted: !hideDone, GroupBy: groupKey, SortBy: sortKey, SortDesc: desc})

			printGroups(cmd.OutOrStdout(), s.Tasks.GroupedTasks(), groupKey != store.GroupNone)
			return nil
		},
	}
	cmd.Flags().StringVar(&listID, "list", "", "only tasks of this list")
	cmd.Flags().StringVar(&search, "search", "", "case-insensitive search in name and description")
	cmd.Flags().StringSliceVar(&statuses, "status", nil, "only these statuses")
	cmd.Flags().BoolVar(&overdue, "overdue", false, "only overdue tasks")
	cmd.Flags().BoolVar(&hideDone, "hide-done", false, "hide completed tasks")
	cmd.Flags().StringVar(&group, "group", "", "group by status|priority|listId|date|deadline")
	cmd.Flags().StringVar(&sortBy, "sort", "", "sort by name|priority|deadline|createdAt")
	cmd.Flags().BoolVar(&desc, "desc", false, "reverse the sort order")
	return cmd
}

func printGroups(w io.Writer, groups []store.Group, headers bool) {
	for _, g := range groups {
		if headers {
			fmt.Fprintf(w, "== %s (%d)\n", g.Key, len(g.Tasks))
		}
		for _, t := range g.Tasks {
			mark := " "
			if t.Status == model.StatusDone {
				mark = "x"
			}
			line := fmt.Sprintf("[%s] %s  %s", mark, t.ID, t.Name)
			if t.Priority != model.PriorityNone {
				line += "  !" + string(t.Priority)
			}
			if t.Deadline != nil {
				line += "  due " + t.Deadline.Format("2006-01-02")
			}
			fmt.Fprintln(w, line)
		}
	}
}

func newTasksAddCmd(a *app) *cobra.Command {
	var in model.TaskInput
	var priority string
	cmd := &cobra.Command{
		Use:   "add NAME...",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Name = strings.Join(args, " ")
			in.Priority = model.Priority(priority)

			s, err := a.stores(cmd.Context())
			if err != nil {
				return err
			}
			if in.ListID == "" {
				lists := s.Lists.Lists()
				if len(lists) == 0 {
					return apperr.Validation("no lists yet, pass --list")
				}
				in.ListID = lists[0].ID
			}
			t, err := s.Tasks.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&in.ListID, "list", "", "target list id (default: first list)")
	cmd.Flags().StringVar(&priority, "priority", "", "none|low|medium|high")
	cmd.Flags().StringSliceVar(&in.Labels, "label", nil, "label ids")
	return cmd
}

func newTasksDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID...",
		Short: "Mark tasks as done",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.stores(cmd.Context())
			if err != nil {
				return err
			}
			res := s.Tasks.BatchUpdate(cmd.Context(), args, model.TaskPatch{Status: model.Ptr(model.StatusDone)})
			return reportBatch(cmd.OutOrStdout(), res)
		},
	}
}

func newTasksRmCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID...",
		Short: "Delete tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.stores(cmd.Context())
			if err != nil {
				return err
			}
			return reportBatch(cmd.OutOrStdout(), s.Tasks.BatchDelete(cmd.Context(), args))
		},
	}
}

func reportBatch(w io.Writer, res store.BatchResult) error {
	for _, item := range res.Results {
		if !item.Success {
			fmt.Fprintf(w, "%s: %v\n", item.ID, item.Err)
		}
	}
	fmt.Fprintf(w, "%d/%d succeeded\n", res.Successful, res.Total)
	if res.Failed > 0 {
		return errors.New("some tasks failed")
	}
	return nil
}
