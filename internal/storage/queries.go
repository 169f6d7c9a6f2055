package storage

const (
	// Exchange rate queries

	// Актуальный курс пары на момент $3
	GetCurrentRateQuery = `
		SELECT id, base, target, rate::text, buy_rate::text, sell_rate::text,
		       effective_at, expires_at, superseded_at, created_by, created_at
		FROM exchange_rates
		WHERE base = $1 AND target = $2
		  AND effective_at <= $3
		  AND (expires_at IS NULL OR expires_at > $3)
		  AND (superseded_at IS NULL OR superseded_at > $3)
		ORDER BY effective_at DESC, created_at DESC
		LIMIT 1
	`

	ListCurrentRatesQuery = `
		SELECT DISTINCT ON (base, target)
		       id, base, target, rate::text, buy_rate::text, sell_rate::text,
		       effective_at, expires_at, superseded_at, created_by, created_at
		FROM exchange_rates
		WHERE effective_at <= $1
		  AND (expires_at IS NULL OR expires_at > $1)
		  AND (superseded_at IS NULL OR superseded_at > $1)
		ORDER BY base, target, effective_at DESC, created_at DESC
	`

	// Курс не удаляется, а помечается вытесненным с момента вступления нового
	SupersedeRatesQuery = `
		UPDATE exchange_rates
		SET superseded_at = $3
		WHERE base = $1 AND target = $2
		  AND superseded_at IS NULL
		  AND effective_at <= $3
	`

	CreateRateQuery = `
		INSERT INTO exchange_rates (
			id, base, target, rate, buy_rate, sell_rate, effective_at, expires_at, created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	// Cash register queries

	CreateSessionQuery = `
		INSERT INTO cash_register_sessions (id, operator_id, branch_id, status, opened_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	GetSessionQuery = `
		SELECT id, operator_id, branch_id, status, opened_at, closed_at, close_notes
		FROM cash_register_sessions
		WHERE id = $1
	`

	GetSessionForUpdateQuery = `
		SELECT id, operator_id, branch_id, status, opened_at, closed_at, close_notes
		FROM cash_register_sessions
		WHERE id = $1
		FOR UPDATE
	`

	GetOpenSessionByOperatorQuery = `
		SELECT id, operator_id, branch_id, status, opened_at, closed_at, close_notes
		FROM cash_register_sessions
		WHERE operator_id = $1 AND status = 'OPEN'
	`

	GetOpenSessionByOperatorForUpdateQuery = `
		SELECT id, operator_id, branch_id, status, opened_at, closed_at, close_notes
		FROM cash_register_sessions
		WHERE operator_id = $1 AND status = 'OPEN'
		FOR UPDATE
	`

	GetSessionBalancesQuery = `
		SELECT currency, balance
		FROM register_balances
		WHERE session_id = $1
		ORDER BY currency
	`

	UpsertBalanceQuery = `
		INSERT INTO register_balances (session_id, currency, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id, currency) DO UPDATE SET balance = EXCLUDED.balance
	`

	CloseSessionQuery = `
		UPDATE cash_register_sessions
		SET status = 'CLOSED', closed_at = $2, close_notes = $3
		WHERE id = $1 AND status = 'OPEN'
	`

	CreateCashOperationQuery = `
		INSERT INTO cash_operations (
			id, session_id, type, currency, amount, balance_after, reference, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	ListCashOperationsQuery = `
		SELECT id, session_id, type, currency, amount, balance_after, reference, notes, created_at
		FROM cash_operations
		WHERE session_id = $1
		ORDER BY created_at, id
	`

	// Transaction queries

	CreateTransactionQuery = `
		INSERT INTO transactions (
			id, reference, type, status,
			send_amount, send_currency, receive_amount, receive_currency, fee_amount, fee_currency,
			exchange_rate, payout_method, sender_id, receiver_id, operator_id, branch_id, notes, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	transactionColumns = `
		id, reference, type, status,
		send_amount, send_currency, receive_amount, receive_currency, fee_amount, fee_currency,
		exchange_rate::text, payout_method, sender_id, receiver_id, operator_id, branch_id,
		settlement_session_id, notes, created_at, completed_at
	`

	GetTransactionByIDQuery = `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
	`

	GetTransactionByReferenceQuery = `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE reference = $1
	`

	GetTransactionForUpdateQuery = `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE id = $1
		FOR UPDATE
	`

	ListTransactionsByOperatorQuery = `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE operator_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	// Статус меняется только из PENDING
	UpdateTransactionStatusQuery = `
		UPDATE transactions
		SET status = $2, notes = $3, completed_at = $4, settlement_session_id = $5
		WHERE id = $1 AND status = 'PENDING'
	`
)
