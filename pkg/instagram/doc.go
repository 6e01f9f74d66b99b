// Package instagram provides the HTTP fetch capability and the wire models
// of Instagram's public web surface.
//
// The Client returns raw status codes and bodies from Fetch so callers decide
// how to classify failures; Download treats any non-2xx status as a
// *errors.TransportError:
//
//	client := instagram.NewClient(cfg.Instagram, 30*time.Second, log)
//	status, body, err := client.Fetch(ctx, instagram.ProfileURL(client.BaseURL(), "someone"), nil)
package instagram
