// Command labelkit manages YOLO annotation workspaces: class lists,
// validation, batch auto-annotation, dataset reduction and zip
// export/import, plus static annotated previews.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/labelkit/go-labelkit"
	"github.com/labelkit/go-labelkit/dataset"
	"github.com/labelkit/go-labelkit/detector"
	"github.com/labelkit/go-labelkit/internal/logger"
	"github.com/labelkit/go-labelkit/postprocess"
	"github.com/labelkit/go-labelkit/render"
	"github.com/labelkit/go-labelkit/store"
	"github.com/labelkit/go-labelkit/workspace"
)

func main() {

	// optional .env with LABELKIT_WORKSPACE / LABELKIT_MODEL defaults
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	if os.Getenv("LABELKIT_DEBUG") != "" {
		logger.InitDevelopment()
	} else {
		logger.InitProduction()
	}

	defer logger.Sync()

	var err error

	switch os.Args[1] {
	case "classes":
		err = runClasses(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "annotate":
		err = runAnnotate(os.Args[2:])
	case "reduce":
		err = runReduce(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "preview":
		err = runPreview(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		zap.S().Error(err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: labelkit <command> [flags]

commands:
  classes    show or set the workspace class list
  validate   report dataset statistics and problems
  annotate   run the detector over workspace images and merge results
  reduce     thin the dataset down to a target image count
  export     write the workspace as a YOLO training zip
  import     merge a YOLO zip into the workspace
  preview    render an annotated copy of one image`)
}

// envDefault reads an environment variable with a fallback, so .env
// files can preset common flags.
func envDefault(key, fallback string) string {

	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func runClasses(args []string) error {

	fs := flag.NewFlagSet("classes", flag.ExitOnError)
	root := fs.String("w", envDefault("LABELKIT_WORKSPACE", "."), "workspace directory")
	set := fs.String("set", "", "comma separated class names to write")
	fs.Parse(args)

	ws, err := workspace.Open(*root)

	if err != nil {
		return err
	}

	if *set != "" {
		ws.Classes = labelkit.ParseClassesCSV(*set)

		if err := ws.SaveClasses(); err != nil {
			return err
		}
	}

	for id, name := range ws.Classes {
		fmt.Printf("%d: %s\n", id, name)
	}

	return nil
}

func runValidate(args []string) error {

	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	root := fs.String("w", envDefault("LABELKIT_WORKSPACE", "."), "workspace directory")
	fs.Parse(args)

	ws, err := workspace.Open(*root)

	if err != nil {
		return err
	}

	report, err := dataset.Validate(ws)

	if err != nil {
		return err
	}

	fmt.Print(report.String())

	return nil
}

func runAnnotate(args []string) error {

	fs := flag.NewFlagSet("annotate", flag.ExitOnError)
	root := fs.String("w", envDefault("LABELKIT_WORKSPACE", "."), "workspace directory")
	model := fs.String("m", envDefault("LABELKIT_MODEL", ""), "ONNX model file")
	size := fs.Int("size", 640, "model input size")
	workers := fs.Int("workers", 2, "inference worker count")
	format := fs.String("format", "auto", "model output format: auto, v5, v8 or v26")
	image := fs.String("image", "", "annotate a single image instead of the whole workspace")
	dryRun := fs.Bool("dry-run", false, "report detections without writing label files")
	fs.Parse(args)

	if *model == "" {
		return fmt.Errorf("annotate requires a model file (-m)")
	}

	ws, err := workspace.Open(*root)

	if err != nil {
		return err
	}

	if ws.Classes.Count() == 0 {
		return fmt.Errorf("workspace has no class list, set one with `labelkit classes -set`")
	}

	fmtV, err := parseFormat(*format)

	if err != nil {
		return err
	}

	dnn, err := detector.NewDNN(detector.DNNParams{
		ModelPath:   *model,
		InputWidth:  *size,
		InputHeight: *size,
	})

	if err != nil {
		return err
	}

	defer dnn.Close()

	targets := ws.Images

	if *image != "" {
		targets = []string{*image}
	}

	sched, err := detector.NewScheduler(detector.SchedulerParams{
		Detector:   dnn,
		Workers:    *workers,
		ClassCount: ws.Classes.Count(),
		Format:     fmtV,
		Thresholds: ws.Thresholds,
		Loader:     workspace.Decode,
		QueueSize:  len(targets) + 1,
	})

	if err != nil {
		return err
	}

	for _, img := range targets {
		if _, err := sched.Submit(img); err != nil {
			return err
		}
	}

	sched.Close()

	st := store.New()
	sy := workspace.NewSync(ws, st)

	annotated, added, failed := 0, 0, 0

	for res := range sched.Results() {

		if res.Err != nil {
			failed++
			continue
		}

		if err := sy.SwitchTo(res.Job.ImagePath); err != nil {
			return err
		}

		if *dryRun {
			op := store.MergeDetections(st.Boxes(), res.Boxes, store.DuplicateTolerance)
			added += len(op.After) - len(op.Before)
			annotated++
			continue
		}

		newBoxes, err := sy.ApplyDetections(res.Job.ImagePath, res.Boxes)

		if err != nil {
			return err
		}

		added += newBoxes
		annotated++
	}

	if !*dryRun {
		if err := sy.Close(); err != nil {
			return err
		}
	}

	zap.L().Info("annotation pass finished",
		zap.Int("images", annotated),
		zap.Int("boxes_added", added),
		zap.Int("failed", failed),
		zap.Bool("dry_run", *dryRun))

	fmt.Printf("annotated %d images, %d new boxes, %d failed\n", annotated, added, failed)

	return nil
}

func runReduce(args []string) error {

	fs := flag.NewFlagSet("reduce", flag.ExitOnError)
	root := fs.String("w", envDefault("LABELKIT_WORKSPACE", "."), "workspace directory")
	target := fs.Int("target", 0, "number of images to keep")
	method := fs.String("method", "stratified", "selection method: stratified or uniform")
	action := fs.String("action", "move", "what to do with skipped images: move or delete")
	seed := fs.Int64("seed", 0, "random seed for stratified selection")
	fs.Parse(args)

	if *target <= 0 {
		return fmt.Errorf("reduce requires a positive -target")
	}

	ws, err := workspace.Open(*root)

	if err != nil {
		return err
	}

	var strategy dataset.Strategy

	switch *method {
	case "stratified":
		strategy = dataset.Stratified
	case "uniform":
		strategy = dataset.Uniform
	default:
		return fmt.Errorf("unknown method %q", *method)
	}

	var act dataset.Action

	switch *action {
	case "move":
		act = dataset.Move
	case "delete":
		act = dataset.Delete
	default:
		return fmt.Errorf("unknown action %q", *action)
	}

	res, err := dataset.Reduce(ws, *target, strategy, act, *seed)

	if err != nil {
		return err
	}

	fmt.Printf("kept %d images, removed %d\n", res.Kept, res.Removed)

	return nil
}

func runExport(args []string) error {

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	root := fs.String("w", envDefault("LABELKIT_WORKSPACE", "."), "workspace directory")
	out := fs.String("o", "dataset.zip", "output zip file")
	train := fs.Float64("train", 0.7, "train split ratio")
	val := fs.Float64("val", 0.2, "val split ratio")
	test := fs.Float64("test", 0.1, "test split ratio")
	seed := fs.Int64("seed", 0, "shuffle seed")
	fs.Parse(args)

	ws, err := workspace.Open(*root)

	if err != nil {
		return err
	}

	stats, err := dataset.ExportZip(ws, *out,
		dataset.Ratios{Train: *train, Val: *val, Test: *test}, *seed)

	if err != nil {
		return err
	}

	fmt.Printf("exported %d images to %s (train %d, val %d, test %d)\n",
		stats.Train+stats.Val+stats.Test, *out, stats.Train, stats.Val, stats.Test)

	return nil
}

func runImport(args []string) error {

	fs := flag.NewFlagSet("import", flag.ExitOnError)
	root := fs.String("w", envDefault("LABELKIT_WORKSPACE", "."), "workspace directory")
	zipPath := fs.String("zip", "", "YOLO zip archive to import")
	fs.Parse(args)

	if *zipPath == "" {
		return fmt.Errorf("import requires a zip file (-zip)")
	}

	stats, err := dataset.ImportZip(*zipPath, *root)

	if err != nil {
		return err
	}

	fmt.Printf("imported %d images and %d labels, %d classes\n",
		stats.Images, stats.Labels, stats.Classes.Count())

	return nil
}

func runPreview(args []string) error {

	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	root := fs.String("w", envDefault("LABELKIT_WORKSPACE", "."), "workspace directory")
	imgPath := fs.String("image", "", "image to render")
	out := fs.String("o", "", "output file, defaults to <stem>_annotated.png")
	fs.Parse(args)

	if *imgPath == "" {
		return fmt.Errorf("preview requires an image (-image)")
	}

	ws, err := workspace.Open(*root)

	if err != nil {
		return err
	}

	img, err := workspace.Decode(*imgPath)

	if err != nil {
		return err
	}

	var boxes []labelkit.Box

	labelPath := ws.LabelPath(*imgPath)

	if _, statErr := os.Stat(labelPath); statErr == nil {
		boxes, err = workspace.ReadLabelFile(labelPath, ws.Classes.Count())

		if err != nil {
			return err
		}
	}

	annotated := render.Preview(img, boxes, ws.Classes)

	target := *out

	if target == "" {
		target = workspace.Stem(*imgPath) + "_annotated.png"
	}

	if err := imaging.Save(annotated, target); err != nil {
		return fmt.Errorf("%w: saving %s: %v", labelkit.ErrIOFailure, target, err)
	}

	fmt.Printf("wrote %s with %d boxes\n", target, len(boxes))

	return nil
}

// parseFormat maps the CLI format flag to the decoder format.
func parseFormat(s string) (postprocess.Format, error) {

	switch s {
	case "auto":
		return postprocess.FormatAuto, nil
	case "v5":
		return postprocess.FormatV5, nil
	case "v8", "v11":
		return postprocess.FormatV8, nil
	case "v26":
		return postprocess.FormatV26, nil
	}

	return postprocess.FormatAuto, fmt.Errorf("unknown output format %q", s)
}
