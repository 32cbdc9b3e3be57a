package report

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nguyensondev/epass-web/epass"
)

func TestTransactionsWorkbook(t *testing.T) {
	transactions := []epass.Transaction{
		{ID: "1", TimestampIn: "01/06/2023 08:00:00", StationInName: "Tram A", TicketTypeName: "Luot", Price: 35000},
		{ID: "2", TimestampIn: "15/06/2023 09:30:00", StationInName: "Tram B", TicketTypeName: "Luot", Price: 40000},
	}

	buf, err := TransactionsWorkbook(transactions)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)

	require.Equal(t, "Ngày giờ qua Trạm", rows[0][0])
	require.Equal(t, "Phí", rows[0][3])

	// Newest transaction first.
	require.Equal(t, "15/06/2023 09:30:00", rows[1][0])
	require.Equal(t, "Tram B", rows[1][1])
	require.Equal(t, "40.000 ₫", rows[1][3])
	require.Equal(t, "01/06/2023 08:00:00", rows[2][0])

	// Spacer row, then the bold total.
	last := rows[len(rows)-1]
	require.Equal(t, "TỔNG TIỀN", last[2])
	require.Equal(t, "75.000 ₫", last[3])
}

func TestTransactionsWorkbookEmpty(t *testing.T) {
	buf, err := TransactionsWorkbook(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Transactions")
	require.NoError(t, err)

	last := rows[len(rows)-1]
	require.Equal(t, "TỔNG TIỀN", last[2])
	require.Equal(t, "0 ₫", last[3])
}
