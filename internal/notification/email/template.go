package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/dejobratic/checkout/internal/orders/domain"
	"github.com/dejobratic/checkout/internal/orders/ports"
)

const SubjectAddedToCart = "Added to Cart"

var addedToCartTmpl = template.Must(template.New("added_to_cart").Parse(`<p>Hi {{.Email}},</p>
<p>Your order {{.Name}} is waiting for you.</p>
<p>Name: {{.Name}}</p>
<p>Description: {{.Description}}</p>
<p>Amount: ${{printf "%.2f" .Amount}}</p>
`))

// RenderAddedToCart builds the mail sent after an order is created.
func RenderAddedToCart(order domain.Order) (ports.Mail, error) {
	var buf bytes.Buffer
	if err := addedToCartTmpl.Execute(&buf, order); err != nil {
		return ports.Mail{}, fmt.Errorf("render added to cart mail: %w", err)
	}
	return ports.Mail{
		Recipient: order.Email,
		Subject:   SubjectAddedToCart,
		HTML:      buf.String(),
	}, nil
}
