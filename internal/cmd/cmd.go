package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/km-arc/go-feishu/framework/app"
	"github.com/km-arc/go-feishu/framework/container"
	"github.com/km-arc/go-feishu/framework/log"
	"github.com/km-arc/go-feishu/framework/providers"
	"github.com/km-arc/go-feishu/services/contact"
	"github.com/km-arc/go-feishu/services/event"
	"github.com/km-arc/go-feishu/services/im"
)

const (
	tokenCmdShort = "print a tenant access token"
	tokenCmdLong  = `Fetch a tenant access token for the configured app and print it.
	The token is valid for about two hours.`
	tokenCmdExample = `# Print a token using FEISHU_APP_ID and FEISHU_APP_SECRET
	feishu token

	# Print a token using a configuration file
	feishu token --config feishu.yaml`

	contactCmdShort     = "read the contact directory"
	contactUserCmdShort = "print a user as JSON"
	contactUserExample  = `# Look up a user by open_id
	feishu contact user ou_7dab8a3d3cdcc9da365777c7ad535d62

	# Look up a user by user_id
	feishu contact user 3e3cf96b --id-type user_id`

	imCmdShort     = "send chat messages"
	imSendCmdShort = "send a message to a user or chat"
	imSendExample  = `# Send a text message to a chat
	feishu im send --receive-id-type chat_id --receive-id oc_a0553eda9014c201e6969b478895c230 --text "deploy finished"

	# Send an interactive card
	feishu im send --receive-id ou_7dab8a3d --msg-type interactive --content '{"elements":[]}'`

	serveCmdShort = "serve the event callback endpoint"
	serveCmdLong  = `Serve the event callback endpoint at /webhook/event.
	URL verification challenges are answered, deliveries are checked against
	event.verification_token and duplicates are dropped. Received messages are
	logged.`
	serveCmdExample = `# Listen on port 8080
	feishu serve --addr :8080`

	shutdownTimeout = 10 * time.Second
)

// TokenCmd returns the command that prints a tenant access token.
func TokenCmd() *cobra.Command {
	flags := &flags{}
	cmd := &cobra.Command{
		Use:     "token",
		Short:   heredoc.Doc(tokenCmdShort),
		Long:    heredoc.Doc(tokenCmdLong),
		Example: heredoc.Doc(tokenCmdExample),
		Args:    cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := flags.application()
			if err != nil {
				return handleError(cmd, err)
			}
			token, err := application.AccessToken()
			if err != nil {
				return handleError(cmd, err)
			}
			value, err := token.Token(cmd.Context())
			if err != nil {
				return handleError(cmd, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}

	flags.addFlags(cmd)
	return cmd
}

// ContactCmd returns the contact command group.
func ContactCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "contact",
		Short: heredoc.Doc(contactCmdShort),
	}
	cmd.AddCommand(contactUserCmd())
	return cmd
}

func contactUserCmd() *cobra.Command {
	flags := &flags{}
	var idType string
	cmd := &cobra.Command{
		Use:     "user <id>",
		Short:   heredoc.Doc(contactUserCmdShort),
		Example: heredoc.Doc(contactUserExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return handleError(cmd, fmt.Errorf("%w: user id", errMissingArgument))
			}
			application, err := flags.application()
			if err != nil {
				return handleError(cmd, err)
			}
			directory, err := application.Contact()
			if err != nil {
				return handleError(cmd, err)
			}
			user, err := directory.User(cmd.Context(), args[0], idType)
			if err != nil {
				return handleError(cmd, err)
			}
			return printJSON(cmd, user)
		},
	}

	flags.addFlags(cmd)
	cmd.Flags().StringVar(&idType, "id-type", contact.OpenID, "Type of the id: open_id, user_id or union_id")
	return cmd
}

// ImCmd returns the messaging command group.
func ImCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "im",
		Short: heredoc.Doc(imCmdShort),
	}
	cmd.AddCommand(imSendCmd())
	return cmd
}

func imSendCmd() *cobra.Command {
	flags := &flags{}
	in := im.SendInput{}
	var text string
	cmd := &cobra.Command{
		Use:     "send",
		Short:   heredoc.Doc(imSendCmdShort),
		Example: heredoc.Doc(imSendExample),
		Args:    cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, _ []string) error {
			if text != "" {
				in.MsgType = "text"
				in.Content = map[string]string{"text": text}
			}
			application, err := flags.application()
			if err != nil {
				return handleError(cmd, err)
			}
			messenger, err := application.Im()
			if err != nil {
				return handleError(cmd, err)
			}
			msg, err := messenger.Send(cmd.Context(), in)
			if err != nil {
				return handleError(cmd, err)
			}
			return printJSON(cmd, msg)
		},
	}

	flags.addFlags(cmd)
	cmd.Flags().StringVar(&in.ReceiveIDType, "receive-id-type", "open_id", "Type of the receiver id: open_id, user_id, union_id, email or chat_id")
	cmd.Flags().StringVar(&in.ReceiveID, "receive-id", "", "Receiver id")
	cmd.Flags().StringVar(&in.MsgType, "msg-type", "text", "Message type")
	cmd.Flags().StringVar(&text, "text", "", "Plain text to send; sets --msg-type text")
	cmd.Flags().Var(&jsonContent{into: &in.Content}, "content", "Message content as a JSON string")
	cmd.Flags().StringVar(&in.UUID, "uuid", "", "Idempotency key; a random one is used when empty")
	return cmd
}

// ServeCmd returns the command that serves the event callback endpoint.
func ServeCmd() *cobra.Command {
	flags := &flags{}
	var addr string
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   heredoc.Doc(serveCmdShort),
		Long:    heredoc.Doc(serveCmdLong),
		Example: heredoc.Doc(serveCmdExample),
		Args:    cobra.NoArgs,

		SilenceErrors: true,
		SilenceUsage:  true,

		RunE: func(cmd *cobra.Command, _ []string) error {
			application, err := flags.application(
				app.WithProvider(container.ProviderOf[providers.EventServiceProvider]()),
				app.WithExtender("event", onMessage(logMessage)),
			)
			if err != nil {
				return handleError(cmd, err)
			}
			dispatcher, err := container.Resolve[*event.Dispatcher](application.Container, "event")
			if err != nil {
				return handleError(cmd, err)
			}

			if err := serve(cmd.Context(), addr, dispatcher.Handler()); err != nil {
				return handleError(cmd, err)
			}
			return nil
		},
	}

	flags.addFlags(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Address to listen on")
	return cmd
}

// onMessage subscribes fn to received messages on the resolved dispatcher.
func onMessage(fn event.Listener) container.Extender {
	return func(instance any, _ *container.Container) any {
		dispatcher := instance.(*event.Dispatcher)
		dispatcher.On("im.message.receive_v1", fn)
		return dispatcher
	}
}

func logMessage(_ context.Context, e event.Event) error {
	var payload struct {
		Message struct {
			MessageID   string `json:"message_id"`
			ChatID      string `json:"chat_id"`
			MessageType string `json:"message_type"`
		} `json:"message"`
	}
	if err := e.Decode(&payload); err != nil {
		return err
	}
	log.Info("message received",
		"event_id", e.Header.EventID,
		"message_id", payload.Message.MessageID,
		"chat_id", payload.Message.ChatID,
		"message_type", payload.Message.MessageType,
	)
	return nil
}

// serve runs the server until ctx is done, then shuts it down.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		log.Info("serving event callbacks", "addr", addr, "path", event.Path)
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}
