package booking

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"

	"eventsure/internal/models"
)

// entryQR renders the gate-scan code for a confirmed ticket.
func entryQR(ticket models.Ticket) ([]byte, error) {
	ref := fmt.Sprintf("eventsure://ticket/%s?event=%s&qty=%d", ticket.TicketID, ticket.EventID, ticket.Quantity)
	return qrcode.Encode(ref, qrcode.Medium, 256)
}
