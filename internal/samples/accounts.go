package samples

import (
	"context"
	"fmt"

	"github.com/Sternrassler/merchant-api-samples/pkg/client"
	"github.com/Sternrassler/merchant-api-samples/pkg/content"
)

// GetAccount prints one account.
func (r *Runner) GetAccount(ctx context.Context, accountID uint64) error {
	if err := r.checkAccount(accountID); err != nil {
		return err
	}
	account, err := r.svc.Accounts.Get(ctx, accountID)
	if err != nil {
		return err
	}
	r.out.Account(account)
	return nil
}

// AddUser adds the configured sample user to the merchant's own account as a
// standard user. A missing account is reported, not returned.
func (r *Runner) AddUser(ctx context.Context) error {
	email := r.opts.AccountSampleUser
	if email == "" {
		return ErrNoSampleUser
	}
	id := r.svc.MerchantID

	account, err := r.svc.Accounts.Get(ctx, id)
	if err != nil {
		if client.IsNotFound(err) {
			r.out.Printf("Account %d not found.\n", id)
			return nil
		}
		return err
	}
	if account.HasUser(email) {
		r.out.Printf("User %s is already on account %d.\n", email, id)
		return nil
	}

	account.Users = append(account.Users, content.AccountUser{EmailAddress: email, Admin: false})
	if _, err := r.svc.Accounts.Update(ctx, account); err != nil {
		return err
	}
	r.logger.Info().Uint64("account_id", id).Str("user", email).Msg("User added")
	r.out.Printf("User %s added to account %d.\n", email, id)
	return nil
}

// DeleteAccountBatch deletes sub-accounts in one custombatch call and reports
// each entry by batch ID. Per-entry failures are printed, not returned.
func (r *Runner) DeleteAccountBatch(ctx context.Context, accountIDs ...uint64) error {
	if err := r.requireMCA(); err != nil {
		return err
	}
	if len(accountIDs) == 0 {
		return ErrNoAccountIDs
	}

	resp, err := r.svc.Accounts.CustomBatch(ctx, r.svc.Accounts.DeleteBatch(accountIDs...))
	if err != nil {
		r.out.Printf("Overall batch call resulted in an error.\n")
		return fmt.Errorf("delete %d account(s): %w", len(accountIDs), err)
	}

	failed := 0
	for i := range resp.Entries {
		if resp.Entries[i].Errors != nil {
			failed++
		}
		r.out.BatchEntry(&resp.Entries[i])
		r.out.Println()
	}
	r.logger.Info().Int("entries", len(resp.Entries)).Int("failed", failed).Msg("Account batch processed")
	return nil
}
