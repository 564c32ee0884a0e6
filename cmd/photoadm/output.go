package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/UnendingLoop/PhotoBlur/internal/model"
)

func printUsage(w io.Writer, userID string, used, limit int64) {
	pct := float64(used) / float64(limit) * 100
	fmt.Fprintf(w, "%s: %d of %d bytes used (%.1f%%)\n", userID, used, limit, pct)
}

func printPhotos(w io.Writer, photos []model.Photo) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tKEY\tTYPE\tBYTES\tREGIONS\tCREATED")
	for _, p := range photos {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", p.ID, p.ObjectKey, p.ContentType, p.SizeBytes, len(p.Polygons), p.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}
