package features

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/ilift/ilift-backend/internal/enquiry"
)

type scriptedSubmitter struct {
	err error
}

func (s *scriptedSubmitter) Submit(context.Context, enquiry.Submission) (enquiry.Receipt, error) {
	if s.err != nil {
		return enquiry.Receipt{}, s.err
	}
	return enquiry.Receipt{LeadID: "lead-1", Reference: "RFRO-1001"}, nil
}

type cartTestContext struct {
	ctx       context.Context
	persister *enquiry.MemoryPersister
	store     *enquiry.Store
	submitter *scriptedSubmitter
	flow      *enquiry.Flow
	view      enquiry.FlowView
	err       error
}

func (c *cartTestContext) reset() {
	c.ctx = context.Background()
	c.persister = enquiry.NewMemoryPersister()
	c.store = nil
	c.submitter = &scriptedSubmitter{}
	c.flow = nil
	c.view = enquiry.FlowView{}
	c.err = nil
}

func (c *cartTestContext) anEmptyEnquiryCart() error {
	c.store = enquiry.NewStore(c.ctx, enquiry.StoreParams{VisitorID: "visitor-1", Persister: c.persister})
	c.flow = enquiry.NewFlow(enquiry.FlowParams{Store: c.store, Submitter: c.submitter})
	return nil
}

func (c *cartTestContext) theCartHolds(list string) error {
	for _, id := range splitIDs(list) {
		c.store.AddItem(c.ctx, enquiry.Item{ID: id, Name: "Product " + id, Category: "forklift"})
	}
	return nil
}

func (c *cartTestContext) iAddProduct(id, name, category string) error {
	c.store.AddItem(c.ctx, enquiry.Item{ID: id, Name: name, Slug: strings.ToLower(id), Category: category})
	return nil
}

func (c *cartTestContext) iRemoveProduct(id string) error {
	c.store.RemoveItem(c.ctx, id)
	return nil
}

func (c *cartTestContext) iClearTheCart() error {
	c.store.Clear(c.ctx)
	return nil
}

func (c *cartTestContext) iToggleTheDrawer() error {
	c.store.Toggle(c.ctx)
	return nil
}

func (c *cartTestContext) theBoundaryAccepts() error {
	c.submitter.err = nil
	return nil
}

func (c *cartTestContext) theBoundaryRejects() error {
	c.submitter.err = errors.New("smtp: 554 transaction failed")
	return nil
}

func (c *cartTestContext) iSubmitTheQuoteForm(name, company string) error {
	c.view, c.err = c.flow.Submit(c.ctx, enquiry.Contact{
		Name:    name,
		Company: company,
		Email:   "dana@harbor.example",
		Phone:   "+1 555 0100",
	})
	return nil
}

func (c *cartTestContext) theCartContains(list string) error {
	want := splitIDs(list)
	items := c.store.Items()
	got := make([]string, 0, len(items))
	for _, item := range items {
		got = append(got, item.ID)
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		return fmt.Errorf("expected cart %v, got %v", want, got)
	}
	return nil
}

func (c *cartTestContext) theCartIsEmpty() error {
	if n := c.store.Len(); n != 0 {
		return fmt.Errorf("expected empty cart, got %d items", n)
	}
	return nil
}

func (c *cartTestContext) aReloadedCartIsEmpty() error {
	reloaded := enquiry.NewStore(c.ctx, enquiry.StoreParams{VisitorID: "visitor-1", Persister: c.persister})
	if n := reloaded.Len(); n != 0 {
		return fmt.Errorf("expected reloaded cart to be empty, got %d items", n)
	}
	return nil
}

func (c *cartTestContext) theDrawerIsOpen() error {
	if !c.store.IsOpen() {
		return errors.New("expected drawer to be open")
	}
	return nil
}

func (c *cartTestContext) theDrawerIsClosed() error {
	if c.store.IsOpen() {
		return errors.New("expected drawer to be closed")
	}
	return nil
}

func (c *cartTestContext) theFlowStateIs(state string) error {
	if got := c.flow.View().State; string(got) != state {
		return fmt.Errorf("expected flow state %q, got %q", state, got)
	}
	return nil
}

func (c *cartTestContext) theFormStillHoldsCompany(company string) error {
	if got := c.flow.View().Contact.Company; got != company {
		return fmt.Errorf("expected company %q, got %q", company, got)
	}
	return nil
}

func (c *cartTestContext) theFlowShowsAnError() error {
	if c.err == nil {
		return errors.New("expected submit to return an error")
	}
	if c.flow.View().Error == "" {
		return errors.New("expected an error message on the form")
	}
	return nil
}

func splitIDs(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &cartTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^an empty enquiry cart$`, tc.anEmptyEnquiryCart)
	ctx.Step(`^the cart holds "([^"]*)"$`, tc.theCartHolds)
	ctx.Step(`^the quote boundary accepts requests$`, tc.theBoundaryAccepts)
	ctx.Step(`^the quote boundary rejects requests$`, tc.theBoundaryRejects)

	ctx.Step(`^I add product "([^"]*)" named "([^"]*)" in category "([^"]*)"$`, tc.iAddProduct)
	ctx.Step(`^I remove product "([^"]*)"$`, tc.iRemoveProduct)
	ctx.Step(`^I clear the cart$`, tc.iClearTheCart)
	ctx.Step(`^I toggle the drawer$`, tc.iToggleTheDrawer)
	ctx.Step(`^I submit the quote form for "([^"]*)" at "([^"]*)"$`, tc.iSubmitTheQuoteForm)

	ctx.Step(`^the cart contains "([^"]*)"$`, tc.theCartContains)
	ctx.Step(`^the cart is empty$`, tc.theCartIsEmpty)
	ctx.Step(`^a reloaded cart is empty$`, tc.aReloadedCartIsEmpty)
	ctx.Step(`^the drawer is open$`, tc.theDrawerIsOpen)
	ctx.Step(`^the drawer is closed$`, tc.theDrawerIsClosed)
	ctx.Step(`^the flow state is "([^"]*)"$`, tc.theFlowStateIs)
	ctx.Step(`^the form still holds company "([^"]*)"$`, tc.theFormStillHoldsCompany)
	ctx.Step(`^the flow shows an error$`, tc.theFlowShowsAnError)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"enquiry_cart.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
