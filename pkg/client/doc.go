// Package client is a Go SDK for the deskdriver WebDriver endpoints.
//
// Requests go through resty on a retryablehttp transport and a circuit
// breaker. Driver errors (no such element, invalid argument, ...) are
// returned as *Error and count as healthy responses for the breaker;
// transport failures and unclassified server errors trip it.
//
// Example Usage:
//
//	c := client.New("http://localhost:4723", client.DefaultOptions())
//	s, err := c.NewSession(ctx, client.Capabilities{App: "notepad.exe"})
//	if err != nil {
//	    return err
//	}
//	defer s.Delete(ctx)
//
//	edit, err := s.FindElement(ctx, client.ByAccessibilityID, "15")
//	if err != nil {
//	    return err
//	}
//	return edit.SendKeys(ctx, "hello")
package client
