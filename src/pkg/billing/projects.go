package billing

import (
	"context"

	"github.com/tuumbleweed/xerr"

	tw "teamwork-invoicer/src/pkg/teamwork"
)

type ProjectLister interface {
	ListProjects(ctx context.Context) ([]tw.Project, *xerr.Error)
}

/*
SelectProjects returns the ids to process, in order and without repeats.

With all set the explicit ids are ignored and every active project of the site is
listed instead. Excluded ids are removed in both cases.
*/
func SelectProjects(ctx context.Context, lister ProjectLister, all bool, ids, exclude []string) (selected []tw.ID, e *xerr.Error) {
	candidates := make([]tw.ID, 0, len(ids))
	if all {
		projects, e := lister.ListProjects(ctx)
		if e != nil {
			return nil, e
		}
		for _, project := range projects {
			candidates = append(candidates, project.ID)
		}
	} else {
		for _, id := range ids {
			candidates = append(candidates, tw.ID(id))
		}
	}

	skip := map[tw.ID]bool{}
	for _, id := range exclude {
		skip[tw.ID(id)] = true
	}
	for _, id := range candidates {
		if skip[id] {
			continue
		}
		skip[id] = true
		selected = append(selected, id)
	}
	return selected, nil
}
