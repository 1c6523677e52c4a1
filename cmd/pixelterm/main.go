// Command pixelterm 是一个在终端中运行的像素编辑器，图像保存为本地 JSON 文件。
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/sirupsen/logrus"

	"pixel-editor/internal/editor"
)

func main() {
	width := flag.Int("width", editor.DefaultWidth, "grid width in cells")
	height := flag.Int("height", editor.DefaultHeight, "grid height in cells")
	name := flag.String("name", "untitled", "image name, saved as <name>.json")
	dir := flag.String("dir", ".", "directory for saved images")
	logFile := flag.String("log", "", "write debug logs to this file")
	flag.Parse()

	// 屏幕被 tcell 接管，日志只能写文件
	logrus.SetOutput(io.Discard)
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		log := logrus.New()
		log.SetOutput(f)
		log.SetLevel(logrus.DebugLevel)
		logrus.SetOutput(f)
		editor.SetLogger(log)
	}

	session, err := editor.NewSession(editor.Options{Width: *width, Height: *height})
	if err != nil {
		fmt.Fprintf(os.Stderr, "create session: %v\n", err)
		os.Exit(1)
	}

	if err := run(newTerm(session, *dir, *name)); err != nil {
		fmt.Fprintf(os.Stderr, "pixelterm: %v\n", err)
		os.Exit(1)
	}
}

func run(t *term) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	for {
		t.draw(screen)
		switch ev := screen.PollEvent().(type) {
		case *tcell.EventResize:
			screen.Sync()
		case *tcell.EventKey:
			if t.handleKey(ev) {
				return nil
			}
		case nil:
			return nil
		}
	}
}
