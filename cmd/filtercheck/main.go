// filtercheck：对本地数据集执行一次 500m 空间筛选，输出命中数量与名称
// 用法：filtercheck --data data/dataset.geojson --lat 59.915 --lng 10.75 [--json]
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"webkart/internal/dataset"
	"webkart/internal/filter"
	"webkart/internal/geo"
	"webkart/internal/logger"
	"webkart/internal/render"
)

type match struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
	Type  string `json:"type"`
}

type report struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Count    int     `json:"count"`
	Matches  []match `json:"matches"`
	Failures int     `json:"failures"`
}

func main() {
	_ = godotenv.Load(".env")
	logger.Setup()
	if err := newRootCmd().Execute(); err != nil {
		logger.L().Error("filtercheck_error", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		data   string
		lat    float64
		lng    float64
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:           "filtercheck",
		Short:         "Count local dataset features within 500 m of a point",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFilter(cmd.Context(), cmd.OutOrStdout(), data, geo.LatLng{Lat: lat, Lng: lng}, asJSON)
		},
	}
	cmd.Flags().StringVar(&data, "data", os.Getenv("LOCAL_DATASET"), "GeoJSON file path or http(s) URL")
	cmd.Flags().Float64Var(&lat, "lat", 0, "click latitude")
	cmd.Flags().Float64Var(&lng, "lng", 0, "click longitude")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func runFilter(ctx context.Context, out io.Writer, data string, at geo.LatLng, asJSON bool) error {
	if data == "" {
		return fmt.Errorf("missing --data")
	}
	if !at.Valid() {
		return fmt.Errorf("invalid coordinate %v,%v", at.Lat, at.Lng)
	}
	at = at.Normalize()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	ds, err := dataset.Load(ctx, dataset.NewSource(data, &http.Client{Timeout: 30 * time.Second}))
	if err != nil {
		return err
	}
	res, err := filter.Run(ds, at.Point())
	if err != nil {
		return err
	}

	rep := report{Lat: at.Lat, Lng: at.Lng, Count: res.Count(), Failures: len(res.Failures), Matches: []match{}}
	for i, f := range res.Matches {
		rep.Matches = append(rep.Matches, match{
			Index: res.Indices[i],
			Name:  render.NameOf(f.Properties, render.FallbackMatchName),
			Type:  render.TypeOf(f.Properties),
		})
	}
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	fmt.Fprintln(out, res.PopupText())
	for _, m := range rep.Matches {
		fmt.Fprintf(out, "  #%d %s (%s)\n", m.Index, m.Name, m.Type)
	}
	if rep.Failures > 0 {
		fmt.Fprintf(out, "  %d feature(s) skipped: invalid or missing geometry\n", rep.Failures)
	}
	return nil
}
