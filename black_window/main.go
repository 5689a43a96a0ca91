package main

import (
	"flag"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/blazer-engine/blazer/bootstrap"
	"github.com/blazer-engine/blazer/bootstrap/vkng"
)

type BlackWindowApplication struct {
	cfg  bootstrap.Config
	once bool
	log  *logrus.Logger

	window *sdl.Window
	sink   *bootstrap.BufferedSink
	vk     *bootstrap.Context
}

func (app *BlackWindowApplication) Run() error {
	defer app.cleanup()

	err := app.initWindow()
	if err != nil {
		return err
	}

	err = app.initVulkan()
	if err != nil {
		return err
	}

	if app.once {
		return nil
	}
	return app.mainLoop()
}

func (app *BlackWindowApplication) initWindow() error {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return err
	}

	window, err := sdl.CreateWindow(app.cfg.Identity.Name, sdl.WINDOWPOS_UNDEFINED, sdl.WINDOWPOS_UNDEFINED, 800, 600, sdl.WINDOW_SHOWN|sdl.WINDOW_VULKAN)
	if err != nil {
		return err
	}
	app.window = window

	return nil
}

func (app *BlackWindowApplication) initVulkan() error {
	driver, err := vkng.NewSDLDriver()
	if err != nil {
		return err
	}

	app.sink = bootstrap.NewBufferedSink(bootstrap.NewLogrusSink(app.log.WithField("source", "vulkan")), 64)

	app.vk, err = bootstrap.Bootstrap(driver, vkng.NewWindow(app.window), app.cfg, app.sink, app.log)
	if err != nil {
		return err
	}

	capabilities, err := app.vk.SurfaceCapabilities()
	if err != nil {
		return err
	}
	app.log.WithFields(logrus.Fields{
		"minImages": capabilities.MinImageCount,
		"maxImages": capabilities.MaxImageCount,
		"extent":    capabilities.CurrentExtent,
		"minExtent": capabilities.MinImageExtent,
		"maxExtent": capabilities.MaxImageExtent,
		"maxLayers": capabilities.MaxImageArrayLayers,
	}).Info("surface capabilities")

	return nil
}

func (app *BlackWindowApplication) mainLoop() error {
	for {
		for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
			switch e := event.(type) {
			case *sdl.QuitEvent:
				return nil
			case *sdl.KeyboardEvent:
				if e.Type == sdl.KEYDOWN && e.Keysym.Sym == sdl.K_ESCAPE {
					return nil
				}
			}
		}
		sdl.Delay(16)
	}
}

func (app *BlackWindowApplication) cleanup() {
	if app.vk != nil {
		app.vk.Destroy()
	}

	if app.sink != nil {
		if err := app.sink.Close(); err != nil {
			app.log.WithError(err).Warn("closing diagnostic sink")
		}
	}

	if app.window != nil {
		app.window.Destroy()
	}
	sdl.Quit()
}

func main() {
	runtime.LockOSThread()

	envFiles := flag.String("env", "", "comma separated .env files to load")
	writeEnv := flag.String("write-env", "", "write the effective configuration to this .env file and exit")
	once := flag.Bool("once", false, "bootstrap, report and tear down without opening the event loop")
	verbose := flag.Bool("v", false, "log debug messages")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	var files []string
	for _, file := range strings.Split(*envFiles, ",") {
		if file = strings.TrimSpace(file); file != "" {
			files = append(files, file)
		}
	}

	cfg, err := bootstrap.LoadConfig(files...)
	if err != nil {
		log.WithError(err).Fatal("loading configuration")
	}

	if *writeEnv != "" {
		if err := cfg.WriteEnv(*writeEnv); err != nil {
			log.WithError(err).Fatal("writing configuration")
		}
		log.WithField("path", *writeEnv).Info("configuration written")
		return
	}

	app := &BlackWindowApplication{
		cfg:  cfg,
		once: *once,
		log:  log,
	}

	err = app.Run()
	if err != nil {
		entry := log.WithError(err)
		if kind := bootstrap.KindOf(err); kind != nil {
			entry = entry.WithFields(logrus.Fields{
				"kind":     kind.Error(),
				"resource": bootstrap.ResourceOf(err),
			})
		}
		entry.Fatal("bootstrap failed")
	}
}
