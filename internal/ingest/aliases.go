package ingest

import "github.com/iho/ledgerimport/internal/domain"

// aliasGroups lists every known header spelling per canonical field, already in
// NormalizeHeader form. Exports from different platforms, locales and report
// versions all land here.
var aliasGroups = []struct {
	field   domain.CanonicalField
	aliases []string
}{
	{domain.FieldTransactionID, []string{
		"transaction id", "transaction", "transaction code", "transaction number", "txn id", "txn",
		"tx id", "transacao", "codigo da transacao", "codigo de transacao", "cod transacao",
		"cod. transacao", "cod. da transacao", "id transacao", "id da transacao", "id da venda",
		"id venda", "codigo da venda", "codigo venda", "numero da transacao", "nº da transacao",
		"n da transacao", "numero do pedido", "numero pedido", "pedido", "order id", "order", "sale id",
		"purchase id", "codigotransacao", "transacaocodigo", "trasacao", "codigo transacao", "hp code",
		"codigo hp",
	}},
	{domain.FieldGrossValue, []string{
		"gross value", "gross", "gross amount", "gross revenue", "total gross", "amount gross",
		"valor bruto", "valor bruto (r$)", "valor bruto r$", "faturamento bruto", "receita bruta",
		"total bruto", "valor total", "valor da compra", "valor de compra",
		"valor de compra com impostos", "valor da compra com impostos", "valor pago",
		"valor pago pelo comprador", "total pago", "preco total", "valor total da venda",
		"valor da venda", "valorbruto", "vlr bruto", "purchase value", "purchase value with taxes",
		"total paid", "amount paid", "sale value", "sale amount",
	}},
	{domain.FieldProductPrice, []string{
		"product price", "price", "preco do produto", "preco produto", "valor do produto",
		"valor produto", "preco", "preco base", "item price", "list price",
	}},
	{domain.FieldOfferPrice, []string{
		"offer price", "preco da oferta", "preco oferta", "valor da oferta", "valor oferta",
		"preco do plano", "plan price",
	}},
	{domain.FieldPlatformFee, []string{
		"platform fee", "platform fees", "fee", "fees", "processing fee", "marketplace fee",
		"taxa da plataforma", "taxa plataforma", "taxas da plataforma", "taxa", "taxas", "tarifa",
		"tarifas", "taxa de processamento", "taxa hotmart", "taxas hotmart", "taxa kiwify", "taxa eduzz",
		"taxa monetizze", "taxa de servico", "taxa de intermediacao", "comissao da plataforma",
		"comissao plataforma", "custo da plataforma", "taxa (r$)", "taxa r$", "taxaplataforma",
		"txa plataforma",
	}},
	{domain.FieldAffiliateCommission, []string{
		"affiliate commission", "affiliate fee", "affiliate payout", "commission affiliate",
		"comissao do afiliado", "comissao afiliado", "comissao de afiliado", "comissao de afiliados",
		"comissao afiliados", "valor do afiliado", "valor afiliado", "comissao (afiliado)",
		"comisao afiliado", "comissaoafiliado", "comissao do afiliado (r$)",
	}},
	{domain.FieldCoproducerCommission, []string{
		"coproducer commission", "co producer commission", "coproduction commission", "co producer fee",
		"comissao do coprodutor", "comissao coprodutor", "comissao de coprodutor",
		"comissao co produtor", "comissao coproducao", "valor do coprodutor", "valor coprodutor",
		"comissaocoprodutor", "comisao coprodutor", "comissao do coprodutor (r$)",
	}},
	{domain.FieldTaxes, []string{
		"taxes", "tax", "tax amount", "vat", "impostos", "imposto", "imposto (r$)", "impostos (r$)",
		"valor dos impostos", "valor imposto", "tributos", "iss", "impostos retidos", "imposto retido",
	}},
	{domain.FieldNetValue, []string{
		"net value", "net", "net amount", "net revenue", "net payout", "amount received", "you received",
		"valor liquido", "valor liquido (r$)", "liquido", "valor recebido", "valor que voce recebeu",
		"voce recebeu", "receita liquida", "comissao do produtor", "comissao produtor",
		"valor do produtor", "valor produtor", "faturamento liquido", "total liquido", "valorliquido",
		"vlr liquido", "valor liqudo", "minha comissao",
	}},
	{domain.FieldNetValueBRL, []string{
		"net value brl", "net brl", "net amount brl", "net value (brl)", "net (brl)",
		"valor liquido em reais", "valor liquido brl", "valor liquido (brl)", "liquido em reais",
		"valor recebido em reais", "valor recebido (r$)", "valor que voce recebeu convertido",
		"valor convertido", "valor recebido convertido", "valor em reais", "valor em r$",
		"valor liquido convertido", "liquido (r$)", "liquido r$",
	}},
	{domain.FieldOriginalCurrency, []string{
		"original currency", "currency", "currency code", "purchase currency", "moeda", "moeda original",
		"moeda da compra", "moeda de compra", "moeda de recebimento", "moeda do pagamento",
		"codigo da moeda",
	}},
	{domain.FieldExchangeRate, []string{
		"exchange rate", "fx rate", "conversion rate", "rate", "taxa de cambio", "cambio", "cotacao",
		"cotacao do dolar", "taxa de conversao", "taxacambio",
	}},
	{domain.FieldPayoutID, []string{
		"payout id", "payout", "payout code", "withdrawal id", "transfer id", "id do repasse",
		"id repasse", "codigo do repasse", "codigo repasse", "repasse", "id do saque", "id saque",
		"codigo do saque", "id da transferencia", "id transferencia",
	}},
	{domain.FieldPayoutDate, []string{
		"payout date", "paid out at", "withdrawal date", "transfer date", "data do repasse",
		"data de repasse", "data repasse", "data do saque", "data de saque", "data de liberacao",
		"data liberacao", "data de recebimento", "data do recebimento", "data da transferencia",
		"data prevista de recebimento", "datarepasse",
	}},
	{domain.FieldSaleDate, []string{
		"sale date", "date", "order date", "purchase date", "created at", "transaction date",
		"date of sale", "data de venda", "data da venda", "data venda", "data", "data do pedido",
		"data da compra", "data de compra", "data da transacao", "data transacao", "data de criacao",
		"data do pagamento", "data de pagamento", "datavenda", "data de vendas", "dt venda", "dt. venda",
	}},
	{domain.FieldConfirmationDate, []string{
		"confirmation date", "approved at", "approval date", "confirmed at", "completed at",
		"data de confirmacao", "data da confirmacao", "data confirmacao", "data de aprovacao",
		"data da aprovacao", "data aprovacao", "data de conclusao", "data de compensacao",
		"dataconfirmacao",
	}},
	{domain.FieldStatus, []string{
		"status", "transaction status", "order status", "payment status", "state", "status da transacao",
		"status da venda", "status do pedido", "status do pagamento", "situacao", "situacao da venda",
		"estado",
	}},
	{domain.FieldPaymentMethod, []string{
		"payment method", "method", "payment", "payment form", "forma de pagamento", "forma pagamento",
		"metodo de pagamento", "meio de pagamento", "meio pagamento", "pagamento", "formapagamento",
		"forma de pagto",
	}},
	{domain.FieldPaymentType, []string{
		"payment type", "billing type", "charge type", "tipo de pagamento", "tipo pagamento",
		"tipo de cobranca", "tipo da cobranca", "tipo de transacao", "recorrencia", "tipo de venda",
	}},
	{domain.FieldInstallments, []string{
		"installments", "installment", "number of installments", "installment count", "parcelas",
		"parcela", "numero de parcelas", "quantidade de parcelas", "qtd parcelas", "qtd. parcelas",
		"nº de parcelas", "parcelamento", "quantidade total de parcelas",
	}},
	{domain.FieldProductCode, []string{
		"product code", "product id", "sku", "item id", "codigo do produto", "codigo produto",
		"cod produto", "cod. produto", "id do produto", "id produto", "ucode", "codigo produto hotmart",
	}},
	{domain.FieldProductName, []string{
		"product name", "product", "item", "item name", "nome do produto", "nome produto", "produto",
		"titulo do produto", "curso", "nomeproduto",
	}},
	{domain.FieldOfferCode, []string{
		"offer code", "offer id", "offer", "plan code", "plan id", "codigo da oferta", "codigo oferta",
		"cod oferta", "cod. oferta", "id da oferta", "id oferta", "oferta", "codigo do plano",
		"chave da oferta",
	}},
	{domain.FieldOfferName, []string{
		"offer name", "plan", "plan name", "nome da oferta", "nome oferta", "descricao da oferta",
		"nome do plano", "plano", "nomeoferta",
	}},
	{domain.FieldBuyerEmail, []string{
		"buyer email", "email", "e mail", "customer email", "client email", "email do cliente",
		"email do comprador", "e mail do comprador", "email comprador", "e mail do cliente",
		"email cliente", "emailcomprador", "email do comprado",
	}},
	{domain.FieldBuyerName, []string{
		"buyer name", "buyer", "customer", "customer name", "client", "client name", "nome do comprador",
		"nome comprador", "comprador", "comprador(a)", "nome do cliente", "nome cliente", "cliente",
		"nome", "nomecomprador",
	}},
	{domain.FieldAffiliateCode, []string{
		"affiliate code", "affiliate id", "affiliate ref", "src", "codigo do afiliado",
		"codigo afiliado", "cod afiliado", "cod. afiliado", "id do afiliado", "id afiliado",
		"ref afiliado",
	}},
	{domain.FieldAffiliateName, []string{
		"affiliate name", "affiliate", "nome do afiliado", "nome afiliado", "afiliado", "afiliado(a)",
		"nomeafiliado",
	}},
	{domain.FieldCoproducerName, []string{
		"coproducer name", "coproducer", "co producer", "nome do coprodutor", "nome coprodutor",
		"coprodutor", "co produtor", "coprodutor(a)", "coprodutores",
	}},
}
