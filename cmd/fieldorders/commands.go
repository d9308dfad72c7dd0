package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/fieldorders/internal/adapter/driven/capture"
	"github.com/ericfisherdev/fieldorders/internal/adapter/driving/cli"
	httphandler "github.com/ericfisherdev/fieldorders/internal/adapter/driving/http"
	"github.com/ericfisherdev/fieldorders/internal/application"
	"github.com/ericfisherdev/fieldorders/internal/domain/model"
	"github.com/ericfisherdev/fieldorders/internal/domain/port/driven"
)

const (
	msgLoginFailed    = "Error en el inicio de sesión"
	msgLoggedIn       = "Sesión iniciada correctamente."
	msgLoggedOut      = "Sesión cerrada."
	msgNoSession      = "No hay sesión activa. Inicia sesión con: fieldorders login --username <usuario>"
	msgListFailed     = "Error al obtener las órdenes"
	msgDetailFailed   = "Error al obtener el detalle de la orden"
	msgSignFailed     = "Error al enviar la firma."
	msgOrderSigned    = "La orden ya está firmada."
	msgNoSavedUsers   = "No hay usuarios guardados."
	msgForgotten      = "Contraseña olvidada para %s."
	msgStorageFailed  = "Error al acceder al almacén de credenciales."
	msgPasswordPrompt = "Contraseña: "
)

const shutdownGracePeriod = 10 * time.Second

type commands struct {
	*deps
	render *cli.Renderer
	prompt *cli.PasswordPrompt
	stdin  io.Reader
}

// fail prints the user-facing message of err and returns errReported so main
// exits non-zero without logging it a second time.
func (c *commands) fail(err error, fallback string) error {
	c.logger.Debug("command failed", "error", err)
	c.render.Failure(model.UserMessage(err, fallback))
	return errReported
}

func (c *commands) login(ctx context.Context, username string, save bool) error {
	password, ok := c.sessions.SavedPassword(ctx, username)
	if !ok {
		var err error
		if password, err = c.prompt.Read(msgPasswordPrompt); err != nil {
			return err
		}
	}

	form := &model.LoginForm{Username: username, Password: password, Save: save}
	session, err := c.sessions.Login(ctx, form)
	if err != nil {
		return c.fail(err, msgLoginFailed)
	}

	message := session.Message
	if message == "" {
		message = msgLoggedIn
	}
	c.render.Success(message)
	if !session.ExpiresAt.IsZero() {
		c.render.Info(fmt.Sprintf("La sesión caduca el %s.", session.ExpiresAt.Local().Format("02/01/2006 15:04")))
	}
	return nil
}

func (c *commands) logout(ctx context.Context) error {
	if err := c.sessions.Logout(ctx); err != nil {
		return c.fail(err, msgStorageFailed)
	}
	c.render.Success(msgLoggedOut)
	return nil
}

func (c *commands) users(ctx context.Context) error {
	names, err := c.sessions.SavedUsernames(ctx)
	if err != nil {
		return c.fail(err, msgStorageFailed)
	}
	if len(names) == 0 {
		c.render.Info(msgNoSavedUsers)
		return nil
	}
	for _, name := range names {
		c.render.Info(name)
	}
	return nil
}

func (c *commands) forget(ctx context.Context, username string) error {
	if err := c.sessions.ForgetCredentials(ctx, username); err != nil {
		return c.fail(err, msgStorageFailed)
	}
	c.render.Success(fmt.Sprintf(msgForgotten, username))
	return nil
}

// token returns the persisted session token, or reports that there is none.
func (c *commands) token(ctx context.Context) (string, error) {
	session, ok := c.sessions.Resume(ctx)
	if !ok {
		c.render.Failure(msgNoSession)
		return "", errReported
	}
	return session.Token, nil
}

func (c *commands) listOrders(ctx context.Context) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	orders, err := c.orders.List(ctx, token)
	if err != nil {
		return c.fail(err, msgListFailed)
	}
	c.render.Orders(orders)
	return nil
}

func (c *commands) showOrder(ctx context.Context, id int64) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	order, err := c.orders.Get(ctx, token, id)
	if err != nil {
		return c.fail(err, msgDetailFailed)
	}
	c.render.Order(order, c.orders.CanSign(order))
	return nil
}

// sign uploads the signature in image for order id. The order is fetched
// first so an already signed order is refused before anything is written.
func (c *commands) sign(ctx context.Context, id int64, image string) error {
	token, err := c.token(ctx)
	if err != nil {
		return err
	}

	order, err := c.orders.Get(ctx, token, id)
	if err != nil {
		return c.fail(err, msgDetailFailed)
	}
	if !c.orders.CanSign(order) {
		c.render.Failure(msgOrderSigned)
		return errReported
	}

	pipeline := c.pipeline(c.render.State)
	receipt, err := pipeline.Sign(ctx, token, id, capture.NewFileSurface(image, c.stdin))
	if err != nil {
		return c.fail(err, msgSignFailed)
	}
	c.render.Success(receipt.Message)
	return nil
}

func (c *commands) sweep(ctx context.Context) error {
	removed, err := c.temp.SweepOrphans(ctx)
	if err != nil {
		return err
	}
	c.render.Sweep(removed)
	return nil
}

// serve runs the local bridge and the orphan sweep loop until ctx is
// cancelled, then drains the server.
func (c *commands) serve(ctx context.Context) error {
	holder := application.NewSessionHolder(nil)
	if session, ok := c.sessions.Resume(ctx); ok {
		holder.Replace(session)
		c.logger.Info("resumed stored session", "expires_at", session.ExpiresAt)
	}

	surface := func(payload string) driven.CaptureSurface {
		return capture.PayloadSurface(payload)
	}
	handler := httphandler.NewHandler(c.sessions, holder, c.orders, c.pipeline(nil), surface, c.logger)

	srv := &http.Server{
		Addr:              c.cfg.ListenAddr,
		Handler:           httphandler.NewServeMux(handler, c.logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.logger.Info("http server starting", "addr", c.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		c.temp.RunSweepLoop(gctx, c.cfg.SweepInterval)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		c.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	c.logger.Info("shutdown complete")
	return err
}
