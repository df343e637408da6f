// Package ambient is a client for the Ambient Weather REST API.
//
// It fetches the latest observation, or a bounded history of observations,
// for one device registered to an account.
//
// # Credentials
//
// Every call takes a Credentials value holding the account's API key, the
// calling application's key, a reference to the device and the endpoint
// generation to talk to:
//
//	creds := ambient.NewCredentials(apiKey, appKey, ambient.DeviceIndex(0), ambient.EndpointLegacy)
//
// EndpointLegacy talks to api.ambientweather.net and reads the latest
// observation from the account's device list. EndpointRealtime talks to
// rt.ambientweather.net and addresses the device by MAC address directly.
// A device given by index is resolved to its MAC address through the
// device list whenever a MAC is needed.
//
// # Rate limiting
//
// The vendor allows one request per second per API key. Every outbound
// request waits MinRequestInterval first, including the first request of
// an isolated call. Callers polling several devices concurrently must keep
// their aggregate rate under the account limit themselves.
//
// # Errors
//
// Nothing is retried. Transport errors are returned wrapped, non-2xx
// responses as *StatusError and undecodable bodies as *DecodeError.
//
// Example:
//
//	latest, err := ambient.GetLatest(ctx, creds)
//	if err != nil {
//		return err
//	}
//	if latest.TempF != nil {
//		fmt.Printf("outdoor: %.1fF\n", *latest.TempF)
//	}
//
//	history, err := ambient.GetHistoric(ctx, creds, ambient.HistoricQuery{Limit: 12})
package ambient
