//go:build gui

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/MingriLingran/yuanbao-chat/internal/config"
	"github.com/MingriLingran/yuanbao-chat/internal/server"
	"github.com/MingriLingran/yuanbao-chat/internal/yuanbao"
)

func runWithGUI(cfg config.Config, deps server.Deps, logger *slog.Logger) error {
	gui := app.NewWithID("yuanbao2api.gui")
	w := gui.NewWindow("Yuanbao2API Server")
	w.Resize(fyne.NewSize(520, 400))

	hostEntry := widget.NewEntry()
	hostEntry.SetText(cfg.Host)

	portEntry := widget.NewEntry()
	portEntry.SetText(strconv.Itoa(cfg.Port))

	cookieEntry := widget.NewPasswordEntry()
	cookieEntry.SetText(deps.Cookie)

	baseURLEntry := widget.NewEntry()
	baseURLEntry.SetText(cfg.BaseURL)

	modelSelect := widget.NewSelect(yuanbao.Selectors(), nil)
	modelSelect.SetSelected(cfg.Model)

	webSearch := widget.NewCheck("Web search by default", nil)
	webSearch.SetChecked(cfg.WebSearch)

	enableMetrics := widget.NewCheck("Serve /metrics", nil)
	enableMetrics.SetChecked(cfg.EnableMetrics)

	statusLabel := widget.NewLabel("Server stopped")
	setStatus := func(s string) { fyne.Do(func() { statusLabel.SetText(s) }) }

	var (
		httpSrv *http.Server
		stopBg  context.CancelFunc
	)

	startServer := func() {
		if httpSrv != nil {
			statusLabel.SetText("Server already running")
			return
		}
		port, err := strconv.Atoi(portEntry.Text)
		if err != nil {
			statusLabel.SetText("✗ Invalid port: " + portEntry.Text)
			return
		}

		run := cfg
		run.Host = hostEntry.Text
		run.Port = port
		run.BaseURL = baseURLEntry.Text
		run.Model = modelSelect.Selected
		run.WebSearch = webSearch.Checked
		run.EnableMetrics = enableMetrics.Checked
		runDeps := deps
		runDeps.Cookie = cookieEntry.Text

		srv := server.New(run, runDeps, logger)
		var bg context.Context
		bg, stopBg = context.WithCancel(context.Background())
		startCleanup(bg, srv, run.CleanupInterval, logger)

		httpSrv = &http.Server{
			Addr:    fmt.Sprintf("%s:%d", run.Host, run.Port),
			Handler: srv.Engine,
		}
		hs := httpSrv
		statusLabel.SetText(fmt.Sprintf("✓ Running on %s", hs.Addr))
		go func() {
			if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				setStatus("✗ Server error: " + err.Error())
			}
		}()
	}

	stopServer := func() {
		if httpSrv == nil {
			statusLabel.SetText("Server not running")
			return
		}
		stopBg()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(ctx); err != nil {
			statusLabel.SetText("✗ Shutdown error: " + err.Error())
		} else {
			statusLabel.SetText("Server stopped")
		}
		httpSrv = nil
	}

	startBtn := widget.NewButton("Start Server", startServer)
	stopBtn := widget.NewButton("Stop Server", stopServer)

	form := widget.NewForm(
		widget.NewFormItem("Host", hostEntry),
		widget.NewFormItem("Port", portEntry),
		widget.NewFormItem("Cookie", cookieEntry),
		widget.NewFormItem("Base URL", baseURLEntry),
		widget.NewFormItem("Model", modelSelect),
	)

	w.SetContent(container.NewVBox(
		form,
		container.NewVBox(webSearch, enableMetrics),
		container.NewHBox(startBtn, stopBtn),
		statusLabel,
	))

	// Setup system tray if supported
	if desk, ok := gui.(desktop.App); ok {
		menu := fyne.NewMenu("Yuanbao2API",
			fyne.NewMenuItem("Show", func() {
				w.Show()
			}),
			fyne.NewMenuItem("Start Server", startServer),
			fyne.NewMenuItem("Stop Server", stopServer),
			fyne.NewMenuItemSeparator(),
			fyne.NewMenuItem("Quit", func() {
				stopServer()
				gui.Quit()
			}),
		)
		desk.SetSystemTrayMenu(menu)

		// Minimize to tray instead of closing
		w.SetCloseIntercept(func() {
			w.Hide()
		})
	}

	startServer()

	w.ShowAndRun()
	stopServer()

	return nil
}
