/*
Package scopesdk provides a client SDK for the image data server's
administrative HTTP API.

# Client vs AdminSession

The package is organized around two main types:

  - Client: holds connection parameters and performs unauthenticated
    operations (Ping, Login)
  - AdminSession: an authenticated administrative session able to look up
    and create experimenters and groups, and to send notifications

Create a Client for the target server and log in with administrator
credentials to obtain a session:

	client := scopesdk.NewClient("data.example.org", 4080, true)

	session, err := client.Login(ctx, "provisioner", password)
	if err != nil {
		// server unreachable or credentials rejected
	}
	defer session.Logout(ctx)

	group, err := session.FindGroupByName(ctx, "signups 2026-08")
	if errors.Is(err, scopesdk.ErrNotFound) {
		// lazily create it
	}

All lookup operations return ErrNotFound when the entity does not exist.
Every other non-2xx response is surfaced as an *APIError carrying the HTTP
status and the server's error code and message.

# Notifications

SendEmail is asynchronous on the server side: the SDK submits a notification
job and polls it with a bounded budget (Client.PollAttempts times
Client.PollInterval). A job that fails, or does not complete within the
budget, is an error. Recipient addresses the server rejected are reported in
EmailOutcome.Invalid even when the job completes.
*/
package scopesdk
