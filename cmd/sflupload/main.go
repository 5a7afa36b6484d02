package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/biosboot/pkg/channel"
	"github.com/robotalks/biosboot/pkg/image"
	"github.com/robotalks/biosboot/pkg/sfl"
)

var (
	port     = "/dev/ttyUSB0"
	baud     = 115200
	base     = "0x40000000"
	entry    string
	retries  = 5
	timeout  = time.Second
	abort    bool
	showProg = true
)

func init() {
	if val := os.Getenv("BIOS_SERIAL"); val != "" {
		port = val
	}
	flag.StringVar(&port, "port", port, "Serial device or ws:// URL of a virtual UART.")
	flag.IntVar(&baud, "baud", baud, "Baud rate.")
	flag.StringVar(&base, "base", base, "Load address of raw binary images.")
	flag.StringVar(&entry, "entry", entry, "Entry address, defaults to the image start address.")
	flag.IntVar(&retries, "retries", retries, "Retransmissions per frame.")
	flag.DurationVar(&timeout, "timeout", timeout, "Reply timeout per frame.")
	flag.BoolVar(&abort, "abort", abort, "Send Abort instead of uploading.")
	flag.BoolVar(&showProg, "progress", showProg, "Print upload progress.")
}

func parseAddr(s string) uint32 {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		log.Fatalf("invalid address %q", s)
	}
	return uint32(v)
}

func open() *channel.Stream {
	var st *channel.Stream
	var err error
	if strings.HasPrefix(port, "ws://") {
		st, err = channel.DialWebsocket(port, "http://localhost/")
	} else {
		conf := channel.DefaultSerialConfig(port)
		conf.BaudRate = baud
		st, err = channel.OpenSerial(conf)
	}
	if err != nil {
		log.Fatalf("open %s: %v", port, err)
	}
	return st
}

func main() {
	flag.Parse()
	defer glog.Flush()

	st := open()
	defer st.Close()
	sender := sfl.NewSender(st)
	sender.Retries = retries
	sender.ReplyTimeout = timeout

	if abort {
		if err := sender.Abort(); err != nil {
			log.Fatalln(err)
		}
		return
	}

	if flag.NArg() != 1 {
		log.Fatalln("usage: sflupload [flags] IMAGE")
	}
	img, err := image.Load(flag.Arg(0), parseAddr(base))
	if err != nil {
		log.Fatalln(err)
	}
	if entry != "" {
		img.Entry = parseAddr(entry)
	}
	if showProg {
		sender.Progress = func(p sfl.Progress) {
			fmt.Fprintf(os.Stderr, "\r%#08x %d/%d bytes", p.Addr, p.Sent, p.Total)
		}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	start := time.Now()
	err = sender.Upload(ctx, img.Segments, img.Entry)
	if showProg {
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		log.Fatalln(err)
	}
	log.Printf("uploaded %s (%s), jumped to %#08x in %v",
		flag.Arg(0), img.Bounds(), img.Entry, time.Since(start).Round(time.Millisecond))
}
