package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"github.com/robotalks/biosboot/pkg/boot"
	"github.com/robotalks/biosboot/pkg/cli/sh"
	"github.com/robotalks/biosboot/pkg/config"

	_ "github.com/robotalks/biosboot/pkg/cli/cmds/all"
)

var autoboot = true

func init() {
	config.SetupFlags()
	flag.BoolVar(&autoboot, "autoboot", autoboot, "Run the boot sequence at start.")
}

// jump stands in for transferring control to the loaded image.
func jump(entry uint32) {
	glog.Infof("executing image at %#08x", entry)
	glog.Flush()
	os.Exit(0)
}

func main() {
	flag.Parse()
	defer glog.Flush()

	b, err := config.Build(config.MustNewConfig(), boot.JumperFunc(jump))
	if err != nil {
		log.Fatalln(err)
	}
	defer b.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	s := sh.New(b)
	s.Ctx = ctx
	if args := flag.Args(); len(args) > 0 {
		s.Run(args...)
		return
	}
	if autoboot {
		err := b.Dispatcher.Run(ctx)
		var ee *boot.ExhaustedError
		if !errors.As(err, &ee) {
			if err != nil {
				log.Fatalln(err)
			}
			return
		}
		glog.Errorf("%v", err)
		s.Shell.Println("Boot failed, entering console.")
	}
	s.Run()
}
