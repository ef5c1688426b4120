package main

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/codegangsta/cli"
	"github.com/disintegration/imaging"
	"github.com/stipplegif/stipple"
)

func main() {
	app := cli.NewApp()
	app.Version = "0.1.0"
	app.Name = "stipple"
	app.Usage = "A command-line tool for rendering images and animations as fields of dots."
	app.UsageText = "1) stipple [options] [file|url]\n" +
		/*      */ "   2) stipple [options] < [file]"
	app.Flags = []cli.Flag{
		cli.IntFlag{
			Name:  "block-size,b",
			Usage: "`SIZE` is the pixel edge length of a sampling block (4-40).",
			Value: 6,
		},
		cli.IntFlag{
			Name:  "max-radius,r",
			Usage: "`RADIUS` is the dot radius of a fully bright block (1-20).",
			Value: 3,
		},
		cli.IntFlag{
			Name:  "spacing,s",
			Usage: "`SPACING` is the gap added between block origins (0-10).",
			Value: 1,
		},
		cli.IntFlag{
			Name:  "threshold,t",
			Usage: "`THRESHOLD` is the minimum block brightness, in percent, that draws a dot (0-100).",
			Value: 20,
		},
		cli.BoolFlag{
			Name:  "dark,d",
			Usage: "Renders white dots on a black background.",
		},
		cli.Float64Flag{
			Name:  "speed",
			Usage: "`SPEED` scales re-encoded playback; 2 plays back twice as fast (1-5).",
			Value: 1,
		},
		cli.IntFlag{
			Name:  "quality,q",
			Usage: "`QUALITY` of the re-encoded animation; lower is higher fidelity and larger output.",
			Value: 15,
		},
		cli.StringFlag{
			Name:  "fit,f",
			Usage: "`FIT` = 800,600 fits the output inside an 800x600 container.",
			Value: "800,600",
		},
		cli.StringFlag{
			Name:  "format",
			Usage: "Animated output `FORMAT`: gif or webp.",
			Value: "gif",
		},
		cli.StringFlag{
			Name:  "out,o",
			Usage: "Output `FILE`. Defaults to stipple.png, stipple.gif or stipple.webp.",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "`N` parallel frame-quantization workers for gif output. 0 uses all CPUs.",
		},
		cli.BoolFlag{
			Name:  "smooth",
			Usage: "Draws anti-aliased dots instead of hard-edged ones.",
		},
		cli.BoolFlag{
			Name:  "play,p",
			Usage: "Animates in the terminal instead of writing a file. CTRL-C to quit.",
		},
		cli.Float64Flag{
			Name:  "gamma",
			Usage: "`GAMMA` less than 1.0 darkens the image and greater than 1.0 lightens it.",
			Value: 1.0,
		},
		cli.Float64Flag{
			Name:  "brightness",
			Usage: "`BRIGHTNESS` = -100 gives solid black, 100 solid white.",
			Value: 0.0,
		},
		cli.Float64Flag{
			Name:  "contrast",
			Usage: "`CONTRAST` = -100 gives solid grey, 100 maximum contrast.",
			Value: 0.0,
		},
		cli.BoolFlag{
			Name:  "invert,i",
			Usage: "Inverts the source image before processing.",
		},
	}
	app.Action = func(c *cli.Context) {
		if err := run(c); err != nil {
			exit(err.Error(), 1)
		}
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	data, err := readInput(c)
	if err != nil {
		return err
	}

	kind, err := stipple.Detect(data)
	if err != nil {
		return err
	}

	params := stipple.Params{
		BlockSize:      c.Int("block-size"),
		MaxRadius:      c.Int("max-radius"),
		Spacing:        c.Int("spacing"),
		Threshold:      c.Int("threshold"),
		DarkBackground: c.Bool("dark"),
	}
	boxW, boxH, err := parseFit(c.String("fit"))
	if err != nil {
		return err
	}

	var opts []stipple.RenderOpt
	if c.Bool("smooth") {
		opts = append(opts, stipple.SmoothDots())
	}
	renderer := stipple.NewRenderer(opts...)

	switch kind {
	case stipple.KindAnimation:
		anim, err := stipple.DecodeAnimation(data)
		if err != nil {
			return err
		}
		for i := range anim.Frames {
			anim.Frames[i].Patch = rgba(preprocess(c, anim.Frames[i].Patch))
		}
		if c.Bool("play") {
			return play(anim, boxW, boxH, params, renderer)
		}
		return encodeAnimation(c, anim, boxW, boxH, params, renderer)

	default:
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return err
		}
		img = preprocess(c, img)
		out := renderer.ProcessStill(img, boxW, boxH, params)
		if c.Bool("play") {
			display := stipple.TerminalDisplay{Writer: os.Stdout, Invert: params.DarkBackground}
			return display.Flush(out)
		}
		return writeStill(c, out)
	}
}

func play(anim *stipple.Animation, boxW, boxH int, params stipple.Params, renderer *stipple.Renderer) error {
	display := &stipple.TerminalDisplay{Writer: os.Stdout, Invert: params.DarkBackground}
	display.ShowCursor(false)
	defer display.ShowCursor(true)

	pipeline := stipple.NewPipeline(
		stipple.WithDisplay(display),
		stipple.WithRenderer(renderer),
		stipple.WithViewport(boxW, boxH),
	)
	pipeline.SetParams(params)
	if err := pipeline.Load(anim); err != nil {
		return err
	}
	defer pipeline.Stop()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
	return nil
}

func encodeAnimation(c *cli.Context, anim *stipple.Animation, boxW, boxH int, params stipple.Params, renderer *stipple.Renderer) error {
	frames := stipple.ProcessAnimation(anim, boxW, boxH, params, renderer)

	format := stipple.FormatGIF
	switch strings.ToLower(c.String("format")) {
	case "gif":
	case "webp":
		format = stipple.FormatWebP
	default:
		return fmt.Errorf("unknown format %q", c.String("format"))
	}

	log.Printf("encoding %d frames", len(frames))
	result := <-stipple.RequestEncode(frames, stipple.EncodeOptions{
		Speed:     c.Float64("speed"),
		Quality:   c.Int("quality"),
		Format:    format,
		Workers:   c.Int("workers"),
		LoopCount: anim.LoopCount,
	})
	if result.Err != nil {
		return result.Err
	}

	out := c.String("out")
	if out == "" {
		out = "stipple." + strings.ToLower(c.String("format"))
	}
	if err := os.WriteFile(out, result.Data, 0644); err != nil {
		return err
	}
	log.Printf("wrote %s (%d bytes)", out, len(result.Data))
	return nil
}

func writeStill(c *cli.Context, img image.Image) error {
	out := c.String("out")
	if out == "" {
		out = "stipple.png"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	log.Printf("wrote %s", out)
	return nil
}

func readInput(c *cli.Context) ([]byte, error) {
	// Try to parse the args, if there are any, as a file or url
	if input := c.Args().First(); input != "" {
		if file, err := os.Open(input); err == nil {
			defer file.Close()
			return io.ReadAll(file)
		}
		resp, err := http.Get(input)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		return io.ReadAll(resp.Body)
	}
	return io.ReadAll(os.Stdin)
}

func parseFit(fit string) (int, int, error) {
	parts := strings.Split(fit, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("fit option must be comma separated")
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("fit dimensions must be positive")
	}
	return w, h, nil
}

func preprocess(c *cli.Context, img image.Image) image.Image {
	if c.IsSet("gamma") {
		img = imaging.AdjustGamma(img, c.Float64("gamma"))
	}
	if c.IsSet("brightness") {
		img = imaging.AdjustBrightness(img, c.Float64("brightness"))
	}
	if c.IsSet("contrast") {
		img = imaging.AdjustContrast(img, c.Float64("contrast"))
	}
	if c.Bool("invert") {
		img = imaging.Invert(img)
	}
	return img
}

func rgba(img image.Image) *image.RGBA {
	if out, ok := img.(*image.RGBA); ok {
		return out
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func exit(msg string, code int) {
	fmt.Println(msg)
	os.Exit(code)
}
