package e2e

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterSteps registers all step definitions.
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	ctx.Step(`^the credential service is running$`, tc.serviceIsRunning)

	// Accounts
	ctx.Step(`^"([^"]*)" signs up as (?:an? )?(individual|institution|employer|regulatory) with email "([^"]*)"$`, tc.signUp)
	ctx.Step(`^"([^"]*)" tries to sign up as (?:an? )?(individual|institution|employer|regulatory) with email "([^"]*)"$`, tc.trySignUp)
	ctx.Step(`^"([^"]*)" logs in with password "([^"]*)"$`, tc.logIn)
	ctx.Step(`^"([^"]*)" fetches their profile$`, tc.fetchProfile)
	ctx.Step(`^someone checks whether "([^"]*)" is registered$`, tc.verifyUser)

	// Certificates
	ctx.Step(`^"([^"]*)" issues a certificate titled "([^"]*)" to "([^"]*)"$`, tc.issueCertificate)
	ctx.Step(`^"([^"]*)" revokes the certificate$`, tc.revokeCertificate)
	ctx.Step(`^"([^"]*)" lists their certificates$`, tc.listOwnCertificates)
	ctx.Step(`^"([^"]*)" lists the certificates they issued$`, tc.listIssuedCertificates)
	ctx.Step(`^anyone verifies the certificate$`, tc.verifyCertificate)

	// Requests
	ctx.Step(`^"([^"]*)" requests a certificate titled "([^"]*)" from "([^"]*)"$`, tc.requestCertificate)
	ctx.Step(`^"([^"]*)" marks the request as "([^"]*)"$`, tc.decideRequest)

	// Shares
	ctx.Step(`^"([^"]*)" shares the certificate with "([^"]*)"$`, tc.shareCertificate)
	ctx.Step(`^"([^"]*)" lists the certificates shared with them$`, tc.listShares)

	// One-time codes
	ctx.Step(`^a code is requested for "([^"]*)"$`, tc.sendOTP)
	ctx.Step(`^"([^"]*)" submits the code "([^"]*)" for "([^"]*)"$`, tc.verifyOTP)

	// Raw requests
	ctx.Step(`^I GET "([^"]*)" without authorization$`, tc.getWithoutAuth)

	// Assertions
	ctx.Step(`^the response status should be (\d+)$`, tc.responseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.responseShouldContain)
	ctx.Step(`^the response should not contain "([^"]*)"$`, tc.responseShouldNotContain)
	ctx.Step(`^the response field "([^"]*)" should equal "([^"]*)"$`, tc.responseFieldShouldEqual)
	ctx.Step(`^the response list "([^"]*)" should have (\d+) items?$`, tc.responseListShouldHave)
}

func (tc *TestContext) serviceIsRunning(context.Context) error {
	if err := tc.Do(http.MethodGet, "/health/live", nil, ""); err != nil {
		return err
	}
	return tc.expectStatus(http.StatusOK)
}

func (tc *TestContext) signUp(ctx context.Context, name, role, email string) error {
	if err := tc.trySignUp(ctx, name, role, email); err != nil {
		return err
	}
	return tc.expectStatus(http.StatusCreated)
}

func (tc *TestContext) trySignUp(_ context.Context, name, role, email string) error {
	body := map[string]string{
		"name":     name,
		"email":    email,
		"password": passwordFor(name),
		"role":     role,
	}
	if err := tc.Do(http.MethodPost, "/accounts", body, ""); err != nil {
		return err
	}
	if tc.Status() != http.StatusCreated {
		return nil
	}
	token, err := tc.StringField("token")
	if err != nil {
		return err
	}
	tc.tokens[name] = token
	tc.emails[name] = email
	return nil
}

func (tc *TestContext) logIn(_ context.Context, name, password string) error {
	body := map[string]string{"email": tc.emails[name], "password": password}
	if err := tc.Do(http.MethodPost, "/sessions", body, ""); err != nil {
		return err
	}
	if tc.Status() == http.StatusOK {
		token, err := tc.StringField("token")
		if err != nil {
			return err
		}
		tc.tokens[name] = token
	}
	return nil
}

func (tc *TestContext) fetchProfile(_ context.Context, name string) error {
	return tc.Do(http.MethodGet, "/me", nil, name)
}

func (tc *TestContext) verifyUser(_ context.Context, name string) error {
	return tc.Do(http.MethodPost, "/verify-user", map[string]string{"name": name}, "")
}

func (tc *TestContext) issueCertificate(_ context.Context, issuer, title, recipient string) error {
	body := map[string]string{
		"title":          title,
		"recipientName":  recipient,
		"recipientEmail": tc.emailOf(recipient),
		"fileData":       "data:application/pdf;base64,JVBERi0=",
		"fileName":       strings.ReplaceAll(strings.ToLower(title), " ", "-") + ".pdf",
	}
	if err := tc.Do(http.MethodPost, "/certificates", body, issuer); err != nil {
		return err
	}
	return tc.save("certificate", "certificate.id", http.StatusCreated)
}

func (tc *TestContext) revokeCertificate(_ context.Context, actor string) error {
	return tc.Do(http.MethodPut, "/certificates/"+tc.saved["certificate"]+"/revoke", nil, actor)
}

func (tc *TestContext) listOwnCertificates(_ context.Context, actor string) error {
	return tc.Do(http.MethodGet, "/certificates/mine", nil, actor)
}

func (tc *TestContext) listIssuedCertificates(_ context.Context, actor string) error {
	return tc.Do(http.MethodGet, "/certificates/issued", nil, actor)
}

func (tc *TestContext) verifyCertificate(context.Context) error {
	return tc.Do(http.MethodGet, "/verify/"+tc.saved["certificate"], nil, "")
}

func (tc *TestContext) requestCertificate(_ context.Context, actor, title, institution string) error {
	body := map[string]string{"title": title, "institutionName": institution}
	if err := tc.Do(http.MethodPost, "/requests", body, actor); err != nil {
		return err
	}
	return tc.save("request", "request.id", http.StatusCreated)
}

func (tc *TestContext) decideRequest(_ context.Context, actor, status string) error {
	return tc.Do(http.MethodPut, "/requests/"+tc.saved["request"], map[string]string{"status": status}, actor)
}

func (tc *TestContext) shareCertificate(_ context.Context, actor, recipient string) error {
	body := map[string]string{
		"certificateId":  tc.saved["certificate"],
		"recipientEmail": tc.emailOf(recipient),
	}
	return tc.Do(http.MethodPost, "/shares", body, actor)
}

func (tc *TestContext) listShares(_ context.Context, actor string) error {
	return tc.Do(http.MethodGet, "/shares/mine", nil, actor)
}

func (tc *TestContext) sendOTP(_ context.Context, email string) error {
	return tc.Do(http.MethodPost, "/otp", map[string]string{"email": email}, "")
}

func (tc *TestContext) verifyOTP(_ context.Context, _ string, code, email string) error {
	return tc.Do(http.MethodPost, "/otp/verify", map[string]string{"email": email, "otp": code}, "")
}

func (tc *TestContext) getWithoutAuth(_ context.Context, path string) error {
	return tc.Do(http.MethodGet, path, nil, "")
}

func (tc *TestContext) responseStatusShouldBe(_ context.Context, expected int) error {
	return tc.expectStatus(expected)
}

func (tc *TestContext) responseShouldContain(_ context.Context, text string) error {
	if !strings.Contains(string(tc.LastResponseBody), tc.expand(text)) {
		return fmt.Errorf("expected response to contain %q, got: %s", text, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseShouldNotContain(_ context.Context, text string) error {
	if strings.Contains(string(tc.LastResponseBody), tc.expand(text)) {
		return fmt.Errorf("expected response not to contain %q, got: %s", text, string(tc.LastResponseBody))
	}
	return nil
}

func (tc *TestContext) responseFieldShouldEqual(_ context.Context, field, expected string) error {
	v, err := tc.Field(field)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != tc.expand(expected) {
		return fmt.Errorf("expected field %s to be %q, got %q", field, expected, got)
	}
	return nil
}

func (tc *TestContext) responseListShouldHave(_ context.Context, field string, n int) error {
	v, err := tc.Field(field)
	if err != nil {
		return err
	}
	list, ok := v.([]any)
	if !ok {
		return fmt.Errorf("field %s is %T, not a list", field, v)
	}
	if len(list) != n {
		return fmt.Errorf("expected %d items in %s, got %d", n, field, len(list))
	}
	return nil
}

func (tc *TestContext) expectStatus(expected int) error {
	if got := tc.Status(); got != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, got, string(tc.LastResponseBody))
	}
	return nil
}

// save stores the string at path under key once the response has status.
func (tc *TestContext) save(key, path string, status int) error {
	if err := tc.expectStatus(status); err != nil {
		return err
	}
	v, err := tc.StringField(path)
	if err != nil {
		return err
	}
	tc.saved[key] = v
	return nil
}

// emailOf resolves an actor alias to the email they signed up with. Anything
// else is taken as a literal address.
func (tc *TestContext) emailOf(name string) string {
	if email, ok := tc.emails[name]; ok {
		return email
	}
	return name
}

// expand substitutes {certificate} and {request} with the saved IDs.
func (tc *TestContext) expand(s string) string {
	for k, v := range tc.saved {
		s = strings.ReplaceAll(s, "{"+k+"}", v)
	}
	return s
}

func passwordFor(name string) string {
	return "pw-" + strings.ToLower(strings.ReplaceAll(name, " ", "-"))
}
