package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc"

	v1 "github.com/and161185/garagesale/api/marketv1"
	"github.com/and161185/garagesale/internal/model"
)

// runner carries what a subcommand needs: an RPC context, a client and the output stream.
type runner struct {
	ctx context.Context
	cli *v1.MarketClient
	out io.Writer
}

type command struct {
	name  string
	usage string
	auth  bool
	run   func(r *runner, args []string) error
}

var commands = []command{
	{"register", "-email <e> -name <n> -p <password>", false, cmdRegister},
	{"login", "-email <e> -p <password> (saves token)", false, cmdLogin},
	{"products", "[-category c] [-condition c] [-max-price p] [-seller id] [-page n] [-limit n]", false, cmdProducts},
	{"show", "-id <product>", false, cmdShow},
	{"mine", "list own listings", true, cmdMine},
	{"add", "-name <n> -desc <d> -price <p> [-currency c] [-category c] [-condition c] [-image url]", true, cmdAdd},
	{"edit", "-id <product> [-name] [-desc] [-price] [-category] [-condition] [-image]", true, cmdEdit},
	{"reserve", "-id <product>", true, productCmd("reserve", (*v1.MarketClient).ReserveProduct)},
	{"unreserve", "-id <product>", true, productCmd("unreserve", (*v1.MarketClient).UnreserveProduct)},
	{"sold", "-id <product>", true, productCmd("sold", (*v1.MarketClient).MarkProductSold)},
	{"delete", "-id <product>", true, cmdDelete},
	{"label", "-id <product> (scan code and product URL)", true, cmdLabel},
	{"scan", "<code | url | id>", true, cmdScan},
	{"buy", "-id <product> [-pay CASH|CARD|PIX|OTHER] [-notes text]", true, cmdBuy},
	{"purchases", "[-status s] [-page n] [-limit n]", true, listCmd("purchases", (*v1.MarketClient).ListPurchases)},
	{"sales", "[-status s] [-page n] [-limit n]", true, listCmd("sales", (*v1.MarketClient).ListSales)},
	{"complete", "-id <purchase>", true, purchaseCmd("complete", (*v1.MarketClient).CompletePurchase)},
	{"cancel", "-id <purchase>", true, purchaseCmd("cancel", (*v1.MarketClient).CancelPurchase)},
	{"refund", "-id <purchase>", true, purchaseCmd("refund", (*v1.MarketClient).RefundPurchase)},
	{"summary", "[-period all|daily|weekly|monthly|yearly]", true, cmdSummary},
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func newFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// ------- validators -------

// validPrice reports whether s is a positive amount with at most two decimals.
func validPrice(s string) bool {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	return err == nil && d.IsPositive() && d.Exponent() >= -2
}

func validCondition(s string) bool {
	return s == "" || model.Condition(strings.ToUpper(s)).Valid()
}

func validPayment(s string) bool {
	return s == "" || model.PaymentMethod(strings.ToUpper(s)).Valid()
}

func validStatus(s string) bool {
	return s == "" || model.PurchaseStatus(strings.ToUpper(s)).Valid()
}

// ------- auth -------

func cmdRegister(r *runner, args []string) error {
	fs := newFlags("register")
	email := fs.String("email", "", "email")
	name := fs.String("name", "", "display name")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *pass == "" {
		return errors.New("need -email and -p")
	}
	if *name == "" {
		*name = strings.SplitN(*email, "@", 2)[0]
	}
	resp, err := r.cli.Register(r.ctx, &v1.RegisterRequest{Email: *email, Name: *name, Password: *pass})
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, resp.User.ID)
	return nil
}

func cmdLogin(r *runner, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "email")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *pass == "" {
		return errors.New("need -email and -p")
	}
	resp, err := r.cli.Login(r.ctx, &v1.LoginRequest{Email: *email, Password: *pass})
	if err != nil {
		return err
	}
	if err := saveToken(tokenFile{AccessToken: resp.AccessToken, ExpiresAt: resp.ExpiresAt, UserID: resp.User.ID}); err != nil {
		return err
	}
	fmt.Fprintln(r.out, "ok")
	return nil
}

// ------- products -------

func cmdProducts(r *runner, args []string) error {
	fs := newFlags("products")
	var req v1.ListProductsRequest
	fs.StringVar(&req.Category, "category", "", "category")
	fs.StringVar(&req.Condition, "condition", "", "condition")
	fs.StringVar(&req.MaxPrice, "max-price", "", "max price")
	fs.StringVar(&req.SellerID, "seller", "", "seller id")
	fs.IntVar(&req.Page, "page", 1, "page")
	fs.IntVar(&req.Limit, "limit", 20, "page size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.MaxPrice != "" && !validPrice(req.MaxPrice) {
		return fmt.Errorf("bad -max-price %q", req.MaxPrice)
	}
	if !validCondition(req.Condition) {
		return fmt.Errorf("bad -condition %q", req.Condition)
	}
	resp, err := r.cli.ListProducts(r.ctx, &req)
	if err != nil {
		return err
	}
	printJSON(r.out, resp)
	return nil
}

func cmdShow(r *runner, args []string) error {
	id, err := idFlag("show", args)
	if err != nil {
		return err
	}
	resp, err := r.cli.GetProduct(r.ctx, &v1.ProductRequest{ID: id})
	if err != nil {
		return err
	}
	printJSON(r.out, resp.Product)
	return nil
}

func cmdMine(r *runner, _ []string) error {
	resp, err := r.cli.ListMyProducts(r.ctx, &v1.ListMyProductsRequest{})
	if err != nil {
		return err
	}
	printJSON(r.out, resp.Products)
	return nil
}

// cmdAdd lists a new product from flags.
func cmdAdd(r *runner, args []string) error {
	fs := newFlags("add")
	var req v1.CreateProductRequest
	fs.StringVar(&req.Name, "name", "", "name")
	fs.StringVar(&req.Description, "desc", "", "description")
	fs.StringVar(&req.Price, "price", "", "price, e.g. 50.00")
	fs.StringVar(&req.Currency, "currency", "", "ISO currency (server default when empty)")
	fs.StringVar(&req.Category, "category", "", "category")
	fs.StringVar(&req.Condition, "condition", "", "NEW|LIKE_NEW|GOOD|FAIR|POOR")
	fs.StringVar(&req.ImageURL, "image", "", "image url")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.Name == "" || req.Description == "" {
		return errors.New("need -name and -desc")
	}
	if !validPrice(req.Price) {
		return fmt.Errorf("bad -price %q", req.Price)
	}
	if !validCondition(req.Condition) {
		return fmt.Errorf("bad -condition %q", req.Condition)
	}
	resp, err := r.cli.CreateProduct(r.ctx, &req)
	if err != nil {
		return err
	}
	printJSON(r.out, resp.Product)
	return nil
}

// cmdEdit sends only the flags that were given.
func cmdEdit(r *runner, args []string) error {
	fs := newFlags("edit")
	id := fs.String("id", "", "product id")
	fs.String("name", "", "name")
	fs.String("desc", "", "description")
	fs.String("price", "", "price")
	fs.String("category", "", "category")
	fs.String("condition", "", "condition")
	fs.String("image", "", "image url")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("need -id")
	}
	req := v1.UpdateProductRequest{ID: *id}
	fields := map[string]**string{
		"name":      &req.Name,
		"desc":      &req.Description,
		"price":     &req.Price,
		"category":  &req.Category,
		"condition": &req.Condition,
		"image":     &req.ImageURL,
	}
	fs.Visit(func(f *flag.Flag) {
		if dst, ok := fields[f.Name]; ok {
			v := f.Value.String()
			*dst = &v
		}
	})
	if req.Price != nil && !validPrice(*req.Price) {
		return fmt.Errorf("bad -price %q", *req.Price)
	}
	if req.Condition != nil && !validCondition(*req.Condition) {
		return fmt.Errorf("bad -condition %q", *req.Condition)
	}
	resp, err := r.cli.UpdateProduct(r.ctx, &req)
	if err != nil {
		return err
	}
	printJSON(r.out, resp.Product)
	return nil
}

type productRPC func(*v1.MarketClient, context.Context, *v1.ProductRequest, ...grpc.CallOption) (*v1.ProductResponse, error)

func productCmd(name string, call productRPC) func(*runner, []string) error {
	return func(r *runner, args []string) error {
		id, err := idFlag(name, args)
		if err != nil {
			return err
		}
		resp, err := call(r.cli, r.ctx, &v1.ProductRequest{ID: id})
		if err != nil {
			return err
		}
		printJSON(r.out, resp.Product)
		return nil
	}
}

func cmdDelete(r *runner, args []string) error {
	id, err := idFlag("delete", args)
	if err != nil {
		return err
	}
	resp, err := r.cli.DeleteProduct(r.ctx, &v1.ProductRequest{ID: id})
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, "deleted", resp.ID)
	return nil
}

func cmdLabel(r *runner, args []string) error {
	id, err := idFlag("label", args)
	if err != nil {
		return err
	}
	resp, err := r.cli.GetLabel(r.ctx, &v1.ProductRequest{ID: id})
	if err != nil {
		return err
	}
	printJSON(r.out, resp)
	return nil
}

func cmdScan(r *runner, args []string) error {
	fs := newFlags("scan")
	code := fs.String("code", "", "scanned text")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *code == "" && fs.NArg() > 0 {
		*code = fs.Arg(0)
	}
	if strings.TrimSpace(*code) == "" {
		return errors.New("need a scanned code")
	}
	resp, err := r.cli.ResolveScan(r.ctx, &v1.ResolveScanRequest{Code: *code})
	if err != nil {
		return err
	}
	printJSON(r.out, resp)
	return nil
}

// ------- purchases -------

func cmdBuy(r *runner, args []string) error {
	fs := newFlags("buy")
	id := fs.String("id", "", "product id")
	pay := fs.String("pay", "", "payment method")
	notes := fs.String("notes", "", "notes for the seller")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("need -id")
	}
	if !validPayment(*pay) {
		return fmt.Errorf("bad -pay %q", *pay)
	}
	resp, err := r.cli.CreatePurchase(r.ctx, &v1.CreatePurchaseRequest{ProductID: *id, PaymentMethod: *pay, Notes: *notes})
	if err != nil {
		return err
	}
	printJSON(r.out, resp.Purchase)
	return nil
}

type listRPC func(*v1.MarketClient, context.Context, *v1.ListPurchasesRequest, ...grpc.CallOption) (*v1.ListPurchasesResponse, error)

func listCmd(name string, call listRPC) func(*runner, []string) error {
	return func(r *runner, args []string) error {
		fs := newFlags(name)
		var req v1.ListPurchasesRequest
		fs.StringVar(&req.Status, "status", "", "PENDING|COMPLETED|CANCELLED|REFUNDED")
		fs.IntVar(&req.Page, "page", 1, "page")
		fs.IntVar(&req.Limit, "limit", 20, "page size")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if !validStatus(req.Status) {
			return fmt.Errorf("bad -status %q", req.Status)
		}
		resp, err := call(r.cli, r.ctx, &req)
		if err != nil {
			return err
		}
		printJSON(r.out, resp)
		return nil
	}
}

type purchaseRPC func(*v1.MarketClient, context.Context, *v1.PurchaseRequest, ...grpc.CallOption) (*v1.PurchaseResponse, error)

func purchaseCmd(name string, call purchaseRPC) func(*runner, []string) error {
	return func(r *runner, args []string) error {
		id, err := idFlag(name, args)
		if err != nil {
			return err
		}
		resp, err := call(r.cli, r.ctx, &v1.PurchaseRequest{ID: id})
		if err != nil {
			return err
		}
		printJSON(r.out, resp.Purchase)
		return nil
	}
}

func cmdSummary(r *runner, args []string) error {
	fs := newFlags("summary")
	period := fs.String("period", "all", "all|daily|weekly|monthly|yearly")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := r.cli.SellerSummary(r.ctx, &v1.SellerSummaryRequest{Period: *period})
	if err != nil {
		return err
	}
	printJSON(r.out, resp)
	return nil
}

func idFlag(name string, args []string) (string, error) {
	fs := newFlags(name)
	id := fs.String("id", "", "id")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	if *id == "" && fs.NArg() > 0 {
		*id = fs.Arg(0)
	}
	if *id == "" {
		return "", errors.New("need -id")
	}
	return *id, nil
}
